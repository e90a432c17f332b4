// Package logging provides structured logging for wikisync on top of
// Go's standard slog package.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, os.Stderr, logging.FormatText)
//	logging.SetRunID(uuid.NewString())
//
//	logging.Info("Orchestrator", "Fetched %d change events", n)
//	logging.Warn("MediaWiki", "API warning for %s: %s", action, text)
//	logging.Error("Orchestrator", err, "Move %s -> %s failed", from, to)
//
// Every entry carries a subsystem attribute. Once SetRunID has been called
// entries also carry a run_id attribute so that the log lines of one
// scheduled run can be correlated.
//
// # Subsystems
//
//   - Bootstrap: configuration loading and service wiring
//   - Config: configuration parsing and validation
//   - MediaWiki: API calls against the source and target wikis
//   - Reconciler: folding change events into pending actions
//   - Orchestrator: the sync run itself
//   - Watermark: reading and committing the watermark
//   - Metrics: textfile metrics output
//   - Inspect: the debugging REPL
//
// # Output formats
//
// FormatText uses slog.TextHandler and is the default for interactive use.
// FormatJSON uses slog.JSONHandler and suits log shipping from CI or
// systemd timers.
package logging
