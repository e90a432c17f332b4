package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	r := NewRecorder()
	finished := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	r.Observe(Run{
		Success:       true,
		Duration:      1500 * time.Millisecond,
		Events:        12,
		PagesImported: 4,
		MovesApplied:  2,
		MovesFailed:   1,
		Excluded:      3,
		LastSuccess:   finished,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastRunSuccess))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.lastSuccessTS))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.runDuration))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.events))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.pagesImported))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.movesApplied))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.movesFailed))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.pagesExcluded))
}

func TestObserve_FailureKeepsUnknownLastSuccess(t *testing.T) {
	r := NewRecorder()
	r.Observe(Run{Success: false})

	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastRunSuccess))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastSuccessTS))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(Run{Success: true, PagesImported: 7, LastSuccess: time.Unix(1700000000, 0)})

	path := filepath.Join(t.TempDir(), "textfile", "wikisync.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "# TYPE wikisync_pages_imported gauge")
	assert.Contains(t, out, "wikisync_pages_imported 7")
	assert.Contains(t, out, "wikisync_last_run_success 1")
	assert.Contains(t, out, "wikisync_last_success_timestamp_seconds 1.7e+09")
	assert.Equal(t, 8, testutil.CollectAndCount(r.Registry()))
}
