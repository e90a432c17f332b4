package mediawiki

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantErr  bool
		warnings []Message
	}{
		{
			name: "plain",
			body: `{"batchcomplete": true, "query": {}}`,
		},
		{
			name:     "errors array",
			body:     `{"errors": [{"code": "badtoken", "text": "Invalid CSRF token.", "module": "main"}]}`,
			wantCode: "badtoken",
		},
		{
			name: "empty errors array",
			body: `{"errors": [], "move": {}}`,
		},
		{
			name:     "legacy error object",
			body:     `{"error": {"code": "internal_api_error", "info": "boom"}}`,
			wantCode: "internal_api_error",
		},
		{
			name:     "warnings array",
			body:     `{"warnings": [{"code": "deprecation", "text": "old", "module": "query"}]}`,
			warnings: []Message{{Code: "deprecation", Text: "old", Module: "query"}},
		},
		{
			name:     "legacy warnings",
			body:     `{"warnings": {"query": {"*": "q"}, "main": {"warnings": "m"}}}`,
			warnings: []Message{{Module: "main", Text: "m"}, {Module: "query", Text: "q"}},
		},
		{
			name:    "not json",
			body:    `<html/>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseResponse("query", []byte(tt.body))
			switch {
			case tt.wantCode != "":
				assert.True(t, IsAPIError(err, tt.wantCode))
			case tt.wantErr:
				require.Error(t, err)
				assert.False(t, IsAPIError(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.warnings, r.Warnings)
			}
		})
	}
}

func TestResponseDecode(t *testing.T) {
	r, err := parseResponse("query", []byte(`{"curtimestamp": "2024-01-01T00:00:00Z", "query": {"n": 1}}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", r.CurTimestamp)
	assert.True(t, r.Has("query"))
	assert.False(t, r.Has("continue"))

	var q struct{ N int }
	require.NoError(t, r.Decode("query", &q))
	assert.Equal(t, 1, q.N)

	assert.True(t, IsAPIError(r.Decode("missing", &q), CodeMissingResult))
	var s string
	assert.True(t, IsAPIError(r.Decode("query", &s), CodeBadResult))
}

func TestMessageText(t *testing.T) {
	assert.Equal(t, "plain", messageText([]byte(`"plain"`)))
	assert.Equal(t, "obj", messageText([]byte(`{"code": "c", "text": "obj"}`)))
	assert.Equal(t, "c", messageText([]byte(`{"code": "c"}`)))
	assert.Equal(t, "", messageText(nil))
}
