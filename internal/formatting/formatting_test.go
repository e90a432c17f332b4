package formatting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"wikisync/internal/reconciler"
)

func samplePlan() reconciler.Plan {
	events := []reconciler.ChangeEvent{
		{Type: reconciler.EventNew, Title: "A", Minor: true},
		{Type: reconciler.EventLog, Title: "A", Log: &reconciler.LogEntry{
			Type:   reconciler.LogTypeMove,
			Action: reconciler.LogActionMove,
			Params: reconciler.LogParams{TargetTitle: "B", SuppressRedirect: true},
		}},
		{Type: reconciler.EventEdit, Title: "Secret"},
		{Type: reconciler.EventLog, Title: "File:X.png", PageID: 42, Log: &reconciler.LogEntry{
			Type:   reconciler.LogTypeUpload,
			Action: reconciler.LogActionUpload,
		}},
	}
	return reconciler.BuildPlan(events, reconciler.NewTitleSet("Secret"))
}

func TestNewPlanReport(t *testing.T) {
	r := NewPlanReport("2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z", 4, samplePlan())

	assert.Equal(t, 4, r.Events)
	assert.Equal(t, []PendingRow{{Title: "B", OldTitle: "A", Minor: true}}, r.Pending)
	assert.Equal(t, []MoveRow{{From: "A", To: "B"}}, r.Moves)
	assert.Equal(t, []string{"Secret"}, r.Excluded)
	assert.Equal(t, []UploadRow{{Title: "File:X.png", PageID: 42}}, r.Uploads)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]OutputFormat{"": FormatTable, "table": FormatTable, "JSON": FormatJSON, "yml": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestTableFormatter_FormatPlan(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(Options{Format: FormatTable})
	require.NoError(t, f.FormatPlan(&buf, NewPlanReport("s", "u", 4, samplePlan())))

	out := buf.String()
	assert.Contains(t, out, "Window: s .. u (4 change(s))")
	assert.Contains(t, out, "Pages to import")
	assert.Contains(t, out, "Moves to replay")
	assert.Contains(t, out, "Excluded")
	assert.Contains(t, out, "File:X.png")
	assert.NotContains(t, out, "\x1b[", "colors are off unless requested")
}

func TestTableFormatter_EmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{})
	require.NoError(t, f.FormatPlan(&buf, NewPlanReport("s", "u", 0, reconciler.BuildPlan(nil, nil))))
	assert.Contains(t, buf.String(), "Nothing to sync")
	assert.NotContains(t, buf.String(), "Pages to import")
}

func TestTableFormatter_FormatResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{})
	require.NoError(t, f.FormatResult(&buf, ResultReport{RunID: "r1", PagesImported: 3, DryRun: true}))
	out := buf.String()
	assert.Contains(t, out, "Pages imported")
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "dry run")
}

func TestJSONAndYAMLFormatters(t *testing.T) {
	report := NewPlanReport("s", "u", 4, samplePlan())

	var jsonBuf bytes.Buffer
	require.NoError(t, NewFormatter(Options{Format: FormatJSON}).FormatPlan(&jsonBuf, report))
	var fromJSON PlanReport
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	assert.Equal(t, report, fromJSON)

	var yamlBuf bytes.Buffer
	require.NoError(t, NewFormatter(Options{Format: FormatYAML}).FormatPlan(&yamlBuf, report))
	assert.True(t, strings.HasPrefix(yamlBuf.String(), "since: s\n"))
	var fromYAML PlanReport
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, report, fromYAML)
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", PrettyJSON(map[string]int{"a": 1}))
	assert.NotEmpty(t, PrettyJSON(func() {}), "unmarshalable values fall back to %v")
}
