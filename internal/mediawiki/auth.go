package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"wikisync/pkg/logging"
)

type tokensQuery struct {
	Tokens struct {
		LoginToken string `json:"logintoken"`
		CSRFToken  string `json:"csrftoken"`
	} `json:"tokens"`
}

func (c *Client) token(ctx context.Context, label, tokenType string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	if tokenType != "" {
		params.Set("type", tokenType)
	}

	resp, err := c.get(ctx, label, params)
	if err != nil {
		return "", err
	}
	var q tokensQuery
	if err := resp.Decode("query", &q); err != nil {
		return "", err
	}

	token := q.Tokens.CSRFToken
	if tokenType == "login" {
		token = q.Tokens.LoginToken
	}
	if token == "" {
		return "", fmt.Errorf("%s returned no %s token", c.name, label)
	}
	return token, nil
}

// Login authenticates the session with a bot password. The session cookie
// is kept in the client's jar for the rest of the run. A result other than
// Success is returned as *AuthError.
func (c *Client) Login(ctx context.Context, username, password string) error {
	loginToken, err := c.token(ctx, "logintoken", "login")
	if err != nil {
		return fmt.Errorf("fetching login token from %s: %w", c.name, err)
	}

	params := url.Values{}
	params.Set("action", "login")
	params.Set("lgname", username)
	params.Set("lgpassword", password)
	params.Set("lgtoken", loginToken)

	resp, err := c.postForm(ctx, "login", params)
	if err != nil {
		return fmt.Errorf("logging in to %s: %w", c.name, err)
	}

	var result struct {
		Result string          `json:"result"`
		Reason json.RawMessage `json:"reason"`
	}
	if err := resp.Decode("login", &result); err != nil {
		return err
	}
	if result.Result != "Success" {
		return &AuthError{Endpoint: c.endpoint, Result: result.Result, Reason: messageText(result.Reason)}
	}

	logging.Info("MediaWiki", "Logged in to %s as %s", c.name, username)
	return nil
}

// CSRFToken fetches the edit token of the current session.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	token, err := c.token(ctx, "csrftoken", "")
	if err != nil {
		return "", fmt.Errorf("fetching csrf token from %s: %w", c.name, err)
	}
	return token, nil
}

// messageText extracts a message that is either a plain string or an
// object with a text field.
func messageText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var m Message
	if err := json.Unmarshal(trimmed, &m); err == nil {
		if m.Text != "" {
			return m.Text
		}
		return m.Code
	}
	return string(trimmed)
}
