package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wikisync/pkg/logging"
)

var watermarkCmd = &cobra.Command{
	Use:   "watermark",
	Short: "Show or set the timestamp the next sync starts from",
	Long: `The watermark is the source wiki's clock at the start of the last
successful sync. The next sync processes every change from that moment on.

Before the first sync, set it to the time the target was last known to be
in step with the source.`,
}

var watermarkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored watermark",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication()
		if err != nil {
			return err
		}
		store := application.WatermarkStore()
		ts, err := store.Load()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ts)
		logging.Debug("Watermark", "Read from %s", store.Path())
		return nil
	},
}

var watermarkSetCmd = &cobra.Command{
	Use:   "set <timestamp|now>",
	Short: "Store a new watermark",
	Long: `Stores a new watermark. The timestamp is in RFC 3339 form as used by
the MediaWiki API, for example 2024-03-01T00:00:00Z. "now" uses the local
clock in UTC.`,
	Example: `  wikisync watermark set 2024-03-01T00:00:00Z
  wikisync watermark set now`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ts := args[0]
		if strings.EqualFold(ts, "now") {
			ts = time.Now().UTC().Format(time.RFC3339)
		}

		application, err := newApplication()
		if err != nil {
			return err
		}
		store := application.WatermarkStore()
		if err := store.Save(ts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Watermark set to %s\n", ts)
		logging.Info("Watermark", "Set to %s in %s", ts, store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watermarkCmd)
	watermarkCmd.AddCommand(watermarkShowCmd)
	watermarkCmd.AddCommand(watermarkSetCmd)
}
