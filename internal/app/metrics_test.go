package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikisync/internal/config"
	"wikisync/internal/orchestrator"
)

func TestRecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textfile", "wikisync.prom")
	a, _ := newTestApp(t, func(c *config.Config) { c.MetricsTextfile = path })

	a.RecordRun(&orchestrator.Result{Events: 4, PagesImported: 3, MovesApplied: 1, MovesFailed: 1, Excluded: 2}, nil, 2*time.Second)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "wikisync_last_run_success 1")
	assert.Contains(t, text, "wikisync_pages_imported 3")
	assert.Contains(t, text, "wikisync_moves_failed 1")
	assert.Contains(t, text, "wikisync_run_duration_seconds 2")
	assert.Contains(t, text, "wikisync_last_success_timestamp_seconds")
}

func TestRecordRun_FailureUsesWatermarkTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikisync.prom")
	a, _ := newTestApp(t, func(c *config.Config) { c.MetricsTextfile = path })
	require.NoError(t, a.WatermarkStore().Save("2024-03-01T00:00:00Z"))

	a.RecordRun(nil, errors.New("boom"), time.Second)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wikisync_last_run_success 0")
	assert.Contains(t, string(data), "wikisync_last_success_timestamp_seconds")
}

func TestRecordRun_FailureWithoutWatermark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikisync.prom")
	a, _ := newTestApp(t, func(c *config.Config) { c.MetricsTextfile = path })

	a.RecordRun(nil, errors.New("boom"), time.Second)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "wikisync_last_success_timestamp_seconds ") {
			assert.Equal(t, "wikisync_last_success_timestamp_seconds 0", line)
		}
	}
}

func TestRecordRun_Disabled(t *testing.T) {
	a, _ := newTestApp(t, nil)
	a.RecordRun(nil, nil, time.Second)
	_, err := os.Stat(a.Settings().MetricsTextfile)
	assert.Error(t, err)
}
