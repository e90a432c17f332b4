package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"wikisync/internal/reconciler"
	"wikisync/pkg/logging"
)

// flag decodes a MediaWiki boolean property. formatversion=2 returns JSON
// booleans; the legacy format returns "" for set flags and omits unset ones.
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "false", "null":
		*f = false
	default:
		*f = true
	}
	return nil
}

type rcLogParams struct {
	TargetTitle      string `json:"target_title"`
	SuppressRedirect flag   `json:"suppressredirect"`
}

type rcEntry struct {
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	PageID    int64           `json:"pageid"`
	Minor     flag            `json:"minor"`
	Timestamp string          `json:"timestamp"`
	LogType   string          `json:"logtype"`
	LogAction string          `json:"logaction"`
	LogParams json.RawMessage `json:"logparams"`
}

// RecentChanges is the change feed of one sync window.
type RecentChanges struct {
	// Events are the entries oldest first.
	Events []reconciler.ChangeEvent
	// CurTimestamp is the server clock captured with the last page. It
	// becomes the next watermark.
	CurTimestamp string
}

// RecentChanges fetches every new, edit and log entry from since (inclusive)
// up to the server's current time, oldest first.
func (c *Client) RecentChanges(ctx context.Context, since string) (*RecentChanges, error) {
	params := url.Values{}
	params.Set("list", "recentchanges")
	params.Set("rcstart", since)
	params.Set("rcdir", "newer")
	params.Set("rcprop", "title|ids|flags|loginfo|timestamp")
	params.Set("rctype", "new|edit|log")
	params.Set("rclimit", "max")
	params.Set("curtimestamp", "1")

	res, err := c.QueryAll(ctx, "recentchanges", params)
	if err != nil {
		return nil, fmt.Errorf("fetching recent changes from %s: %w", c.name, err)
	}

	var entries []rcEntry
	if err := res.List("recentchanges", &entries); err != nil {
		return nil, err
	}

	events := make([]reconciler.ChangeEvent, 0, len(entries))
	for _, e := range entries {
		ev, ok, err := e.toEvent()
		if err != nil {
			return nil, fmt.Errorf("recent change %q at %s: %w", e.Title, e.Timestamp, err)
		}
		if !ok {
			logging.Debug("MediaWiki", "Skipping recent change of type %q for %s", e.Type, e.Title)
			continue
		}
		events = append(events, ev)
	}

	if res.CurTimestamp == "" {
		return nil, fmt.Errorf("%s did not report curtimestamp", c.name)
	}

	logging.Info("MediaWiki", "Fetched %d change(s) from %s since %s", len(events), c.name, since)
	return &RecentChanges{Events: events, CurTimestamp: res.CurTimestamp}, nil
}

func (e rcEntry) toEvent() (reconciler.ChangeEvent, bool, error) {
	ev := reconciler.ChangeEvent{
		Type:      reconciler.EventType(e.Type),
		Title:     e.Title,
		PageID:    e.PageID,
		Minor:     bool(e.Minor),
		Timestamp: e.Timestamp,
	}

	switch ev.Type {
	case reconciler.EventNew, reconciler.EventEdit:
		return ev, true, nil
	case reconciler.EventLog:
		params, err := decodeLogParams(e.LogParams)
		if err != nil {
			return ev, false, err
		}
		ev.Minor = false
		ev.Log = &reconciler.LogEntry{
			Type:   e.LogType,
			Action: e.LogAction,
			Params: reconciler.LogParams{
				TargetTitle:      params.TargetTitle,
				SuppressRedirect: bool(params.SuppressRedirect),
			},
		}
		return ev, true, nil
	default:
		return ev, false, nil
	}
}

// decodeLogParams accepts an object, or the empty array the API returns
// for log entries without parameters.
func decodeLogParams(raw json.RawMessage) (rcLogParams, error) {
	var p rcLogParams
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return p, nil
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return p, fmt.Errorf("decoding logparams: %w", err)
	}
	return p, nil
}
