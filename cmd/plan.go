package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wikisync/internal/app"
	"wikisync/internal/cli"
	"wikisync/internal/formatting"
)

var (
	planSince           string
	planOutput          string
	planExcludeCategory string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what the next sync would do",
	Long: `Fetches the source's recent changes since the watermark and prints the
pages a sync would import, the moves it would replay, the excluded titles
and the file uploads it would skip.

plan only reads from the source wiki. The target is not contacted and the
watermark is not changed.`,
	Example: `  wikisync plan
  wikisync plan --since 2024-03-01T00:00:00Z --output yaml`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseFormat(planOutput)
	if err != nil {
		return err
	}

	application, err := newApplication()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("exclude-category") {
		application.Settings().ExcludeCategory = planExcludeCategory
	}
	if err := application.Validate(false); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	progress := cli.NewProgress(cmd.ErrOrStderr(), application.Quiet())
	o, err := application.NewOrchestrator(ctx, app.RunOptions{Since: planSince, Progress: progress})
	if err != nil {
		return err
	}

	win, err := o.Plan(ctx)
	if err != nil {
		progress.Fail("Planning failed")
		return err
	}
	progress.Done("")

	report := formatting.NewPlanReport(win.Since, win.Until, len(win.Events), win.Plan)
	formatter := formatting.NewFormatter(formatting.Options{Format: format, Color: isTerminal(os.Stdout)})
	if err := formatter.FormatPlan(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("failed to print plan: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planSince, "since", "", "Start of the window (RFC 3339), overriding the stored watermark")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "table", "Output format: table, json or yaml")
	planCmd.Flags().StringVar(&planExcludeCategory, "exclude-category", "", "Category whose members are never synced (overrides the config)")
}
