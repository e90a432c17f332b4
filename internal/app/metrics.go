package app

import (
	"time"

	"wikisync/internal/metrics"
	"wikisync/internal/orchestrator"
	"wikisync/pkg/logging"
)

// RecordRun writes the run gauges to the configured textfile. It does
// nothing when no metrics textfile is configured. Failing to write metrics
// never fails the run.
func (a *Application) RecordRun(result *orchestrator.Result, runErr error, duration time.Duration) {
	path := a.settings.MetricsTextfile
	if path == "" {
		return
	}

	run := metrics.Run{
		Success:  runErr == nil,
		Duration: duration,
	}
	if result != nil {
		run.Events = result.Events
		run.PagesImported = result.PagesImported
		run.MovesApplied = result.MovesApplied
		run.MovesFailed = result.MovesFailed
		run.Excluded = result.Excluded
	}

	if run.Success {
		run.LastSuccess = time.Now()
	} else if modTime, err := a.WatermarkStore().ModTime(); err == nil {
		// Only successful runs write the watermark.
		run.LastSuccess = modTime
	}

	recorder := metrics.NewRecorder()
	recorder.Observe(run)
	if err := recorder.WriteTextfile(path); err != nil {
		logging.Error("Metrics", err, "Failed to write run metrics")
	}
}
