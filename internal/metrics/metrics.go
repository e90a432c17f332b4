package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wikisync/pkg/logging"
)

const namespace = "wikisync"

// Run is the outcome of one sync run as reported to monitoring.
type Run struct {
	Success       bool
	Duration      time.Duration
	Events        int
	PagesImported int
	MovesApplied  int
	MovesFailed   int
	Excluded      int
	// LastSuccess is the time of the most recent successful run, which is
	// this run when Success is set. Zero means unknown.
	LastSuccess time.Time
}

// Recorder holds the run gauges in a private registry so that a textfile
// only ever contains wikisync metrics.
type Recorder struct {
	registry *prometheus.Registry

	lastRunSuccess prometheus.Gauge
	lastSuccessTS  prometheus.Gauge
	runDuration    prometheus.Gauge
	events         prometheus.Gauge
	pagesImported  prometheus.Gauge
	movesApplied   prometheus.Gauge
	movesFailed    prometheus.Gauge
	pagesExcluded  prometheus.Gauge
}

// NewRecorder creates a recorder with all gauges registered.
func NewRecorder() *Recorder {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	r := &Recorder{
		registry:       prometheus.NewRegistry(),
		lastRunSuccess: gauge("last_run_success", "1 if the last sync run succeeded, 0 otherwise"),
		lastSuccessTS:  gauge("last_success_timestamp_seconds", "Unix time of the last successful sync run"),
		runDuration:    gauge("run_duration_seconds", "Wall time of the last sync run"),
		events:         gauge("events_processed", "Recent-change entries folded by the last run"),
		pagesImported:  gauge("pages_imported", "Pages imported into the target wiki by the last run"),
		movesApplied:   gauge("moves_applied", "Page moves replayed on the target wiki by the last run"),
		movesFailed:    gauge("moves_failed", "Page moves the target wiki rejected in the last run"),
		pagesExcluded:  gauge("pages_excluded", "Titles dropped by the exclusion category in the last run"),
	}
	r.registry.MustRegister(
		r.lastRunSuccess,
		r.lastSuccessTS,
		r.runDuration,
		r.events,
		r.pagesImported,
		r.movesApplied,
		r.movesFailed,
		r.pagesExcluded,
	)
	return r
}

// Observe sets every gauge from run.
func (r *Recorder) Observe(run Run) {
	if run.Success {
		r.lastRunSuccess.Set(1)
	} else {
		r.lastRunSuccess.Set(0)
	}
	if !run.LastSuccess.IsZero() {
		r.lastSuccessTS.Set(float64(run.LastSuccess.Unix()))
	}
	r.runDuration.Set(run.Duration.Seconds())
	r.events.Set(float64(run.Events))
	r.pagesImported.Set(float64(run.PagesImported))
	r.movesApplied.Set(float64(run.MovesApplied))
	r.movesFailed.Set(float64(run.MovesFailed))
	r.pagesExcluded.Set(float64(run.Excluded))
}

// WriteTextfile writes the gauges in the text exposition format for the
// node-exporter textfile collector. The write is atomic.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	logging.Debug("Metrics", "Wrote run metrics to %s", path)
	return nil
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
