package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"wikisync/pkg/logging"
)

// QueryResult is the accumulated result of a paginated query.
type QueryResult struct {
	// Lists holds the array-valued fields of query, appended page by page.
	Lists map[string][]json.RawMessage
	// Values holds the other fields of query; later pages overwrite.
	Values map[string]json.RawMessage
	// CurTimestamp is the server clock reported with the last page.
	CurTimestamp string
	// Pages is the number of requests issued.
	Pages int
}

// List decodes the accumulated list under key into v, which must be a
// pointer to a slice.
func (q *QueryResult) List(key string, v interface{}) error {
	items := q.Lists[key]
	if items == nil {
		items = []json.RawMessage{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding query.%s: %w", key, err)
	}
	return nil
}

// QueryAll runs an action=query request and follows continuation until the
// server stops returning a continue object. Any error aborts the whole
// fetch. A page without a query field ends the fetch; on the first page
// that means an empty result.
func (c *Client) QueryAll(ctx context.Context, label string, params url.Values) (*QueryResult, error) {
	result := &QueryResult{
		Lists:  make(map[string][]json.RawMessage),
		Values: make(map[string]json.RawMessage),
	}

	base := url.Values{}
	for k, v := range params {
		base[k] = v
	}
	base.Set("action", "query")

	cont := map[string]string{}
	for {
		p := url.Values{}
		for k, v := range base {
			p[k] = v
		}
		for k, v := range cont {
			p.Set(k, v)
		}

		resp, err := c.get(ctx, fmt.Sprintf("%s-%d", label, result.Pages+1), p)
		if err != nil {
			return nil, err
		}
		result.Pages++
		if resp.CurTimestamp != "" {
			result.CurTimestamp = resp.CurTimestamp
		}

		raw, ok := resp.Raw("query")
		if !ok {
			break
		}
		if err := mergeQuery(result, raw); err != nil {
			return nil, fmt.Errorf("%s page %d: %w", label, result.Pages, err)
		}

		next, err := continuation(resp)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", label, result.Pages, err)
		}
		if next == nil {
			break
		}
		cont = next
	}

	logging.Debug("MediaWiki", "%s %s finished after %d page(s)", c.name, label, result.Pages)
	return result, nil
}

func mergeQuery(result *QueryResult, raw json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// formatversion=2 renders an empty query as [].
		if trimmed := bytes.TrimSpace(raw); bytes.Equal(trimmed, []byte("[]")) {
			return nil
		}
		return fmt.Errorf("decoding query: %w", err)
	}

	for key, value := range fields {
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(trimmed, &items); err != nil {
				return fmt.Errorf("decoding query.%s: %w", key, err)
			}
			result.Lists[key] = append(result.Lists[key], items...)
			continue
		}
		result.Values[key] = value
	}
	return nil
}

// continuation returns the parameters of the next request, or nil when
// the response carries no continue object.
func continuation(resp *Response) (map[string]string, error) {
	raw, ok := resp.Raw("continue")
	if !ok {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding continue: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	next := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			// Numeric continuation values are passed through verbatim.
			s = string(bytes.TrimSpace(v))
		}
		next[k] = s
	}
	return next, nil
}
