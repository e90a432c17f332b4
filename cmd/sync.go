package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wikisync/internal/app"
	"wikisync/internal/cli"
	"wikisync/internal/formatting"
	"wikisync/internal/orchestrator"
)

var (
	syncSince           string
	syncDryRun          bool
	syncOutput          string
	syncExcludeCategory string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync recent changes from the source wiki to the target wiki",
	Long: `Runs one sync: fetches the source's recent changes since the stored
watermark, replays page moves on the target, imports the changed pages and
advances the watermark.

A run that fails anywhere except a single page move leaves the watermark
untouched, so the next run picks up the same window again.

Use --since for the first run, or to reprocess a window on purpose.
--dry-run fetches and exports but writes nothing to the target or the
watermark file.`,
	Example: `  wikisync sync
  wikisync sync --since 2024-03-01T00:00:00Z
  wikisync sync --dry-run --output json`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(syncOutput)
	if err != nil {
		return err
	}

	application, err := newApplication()
	if err != nil {
		return err
	}
	settings := application.Settings()
	if cmd.Flags().Changed("exclude-category") {
		settings.ExcludeCategory = syncExcludeCategory
	}
	if err := application.Validate(!syncDryRun); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	start := time.Now()
	progress := cli.NewProgress(cmd.ErrOrStderr(), application.Quiet())
	o, err := application.NewOrchestrator(ctx, app.RunOptions{
		WithTarget: !syncDryRun,
		Since:      syncSince,
		DryRun:     syncDryRun,
		Progress:   progress,
	})
	if err != nil {
		recordRun(application, nil, err, start)
		return err
	}

	result, err := o.Run(ctx)
	recordRun(application, result, err, start)
	if err != nil {
		return err
	}

	report := formatting.ResultReport{
		RunID:          application.RunID(),
		Since:          result.Since,
		Until:          result.Until,
		Events:         result.Events,
		PagesImported:  result.PagesImported,
		MovesApplied:   result.MovesApplied,
		MovesFailed:    result.MovesFailed,
		Excluded:       result.Excluded,
		UploadsSkipped: result.UploadsSkipped,
		Imported:       result.Imported,
		DryRun:         result.DryRun,
		WatermarkSaved: result.WatermarkSaved,
	}
	formatter := formatting.NewFormatter(formatting.Options{Format: format, Color: isTerminal(os.Stdout)})
	if err := formatter.FormatResult(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}
	return nil
}

// recordRun writes run metrics for real runs; a dry run leaves the last
// real run's metrics in place.
func recordRun(application *app.Application, result *orchestrator.Result, err error, start time.Time) {
	if syncDryRun {
		return
	}
	application.RecordRun(result, err, time.Since(start))
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncSince, "since", "", "Start of the window (RFC 3339), overriding the stored watermark")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Fetch and export only; write nothing")
	syncCmd.Flags().StringVarP(&syncOutput, "output", "o", "table", "Output format: table, json or yaml")
	syncCmd.Flags().StringVar(&syncExcludeCategory, "exclude-category", "", "Category whose members are never synced (overrides the config)")
}
