package cmd

import (
	"github.com/spf13/cobra"

	"wikisync/internal/app"
	"wikisync/internal/cli"
	"wikisync/internal/inspect"
)

var inspectSince string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Explore the next sync window interactively",
	Long: `Fetches and reduces the next sync window like 'wikisync plan', then
opens a prompt to look at it from different angles:

  summary          counts for the window
  events [title]   the raw change events, optionally for one title
  pending          pages that would be imported
  moves            moves that would be replayed
  excluded         titles dropped by the exclusion category
  uploads          file uploads that would be skipped

Nothing is written to either wiki.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}
	if err := application.Validate(false); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	progress := cli.NewProgress(cmd.ErrOrStderr(), application.Quiet())
	o, err := application.NewOrchestrator(ctx, app.RunOptions{Since: inspectSince, Progress: progress})
	if err != nil {
		return err
	}
	win, err := o.Plan(ctx)
	if err != nil {
		progress.Fail("Fetching the window failed")
		return err
	}
	progress.Done("")

	return inspect.NewREPL(win, cmd.OutOrStdout()).Run(ctx)
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectSince, "since", "", "Start of the window (RFC 3339), overriding the stored watermark")
}
