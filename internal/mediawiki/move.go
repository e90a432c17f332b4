package mediawiki

import (
	"context"
	"fmt"
	"net/url"

	"wikisync/pkg/logging"
)

// MoveRequest describes one page move on the target wiki.
type MoveRequest struct {
	From       string
	To         string
	Reason     string
	NoRedirect bool
	Token      string
}

// Move renames a page. Talk pages are not moved along; their moves appear
// as separate log entries in the change feed.
func (c *Client) Move(ctx context.Context, req MoveRequest) error {
	if req.From == "" || req.To == "" {
		return &APIError{Action: "move", Code: CodeMissingParam, Info: "move needs both a source and a destination title"}
	}
	if req.Token == "" {
		return &APIError{Action: "move", Code: CodeMissingParam, Info: "move needs a csrf token"}
	}

	params := url.Values{}
	params.Set("action", "move")
	params.Set("from", req.From)
	params.Set("to", req.To)
	if req.Reason != "" {
		params.Set("reason", req.Reason)
	}
	if req.NoRedirect {
		params.Set("noredirect", "1")
	}
	params.Set("token", req.Token)

	resp, err := c.postForm(ctx, "move", params)
	if err != nil {
		return fmt.Errorf("moving %q to %q on %s: %w", req.From, req.To, c.name, err)
	}

	var result struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := resp.Decode("move", &result); err != nil {
		return err
	}
	if result.From == "" || result.To == "" {
		return &APIError{Action: "move", Code: CodeBadResult, Info: fmt.Sprintf("move of %q was not confirmed", req.From)}
	}

	logging.Info("MediaWiki", "Moved %q to %q on %s", result.From, result.To, c.name)
	return nil
}
