package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Export returns the XML export of the current revisions of titles. The
// caller keeps len(titles) within the wiki's per-request title limit.
func (c *Client) Export(ctx context.Context, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", fmt.Errorf("export needs at least one title")
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", strings.Join(titles, "|"))
	params.Set("export", "1")

	resp, err := c.get(ctx, "export", params)
	if err != nil {
		return "", fmt.Errorf("exporting %d page(s) from %s: %w", len(titles), c.name, err)
	}

	var query struct {
		Export json.RawMessage `json:"export"`
	}
	if err := resp.Decode("query", &query); err != nil {
		return "", err
	}
	return decodeExport(query.Export)
}

// decodeExport accepts the plain string form and the legacy {"*": "..."}
// form of query.export.
func decodeExport(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("response has no export")
	}

	var xml string
	if trimmed[0] == '{' {
		var legacy map[string]string
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return "", fmt.Errorf("decoding export: %w", err)
		}
		xml = legacy["*"]
	} else if err := json.Unmarshal(trimmed, &xml); err != nil {
		return "", fmt.Errorf("decoding export: %w", err)
	}

	if !strings.Contains(xml, "<mediawiki") {
		return "", fmt.Errorf("export is not a <mediawiki> document")
	}
	return xml, nil
}
