package mediawiki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Message is one entry of an errors or warnings array.
type Message struct {
	Code   string `json:"code"`
	Text   string `json:"text"`
	Module string `json:"module,omitempty"`
}

// Response is a decoded API envelope whose errors have already been
// checked. Action-specific payloads are read with Decode.
type Response struct {
	// Warnings lists the warnings returned with the response.
	Warnings []Message
	// CurTimestamp is the server clock when curtimestamp=1 was requested.
	CurTimestamp string

	action string
	body   map[string]json.RawMessage
}

// legacyError is the pre-errorformat error object.
type legacyError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// parseResponse decodes an API envelope. An errors array with entries, or a
// legacy error object, is returned as *APIError.
func parseResponse(action string, data []byte) (*Response, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", action, err)
	}

	r := &Response{action: action, body: body}

	if raw, ok := body["errors"]; ok {
		var errs []Message
		if err := json.Unmarshal(raw, &errs); err != nil {
			return nil, fmt.Errorf("decoding %s errors: %w", action, err)
		}
		if len(errs) > 0 {
			return nil, &APIError{Action: action, Code: errs[0].Code, Info: errs[0].Text, Additional: errs[1:]}
		}
	}
	if raw, ok := body["error"]; ok {
		var le legacyError
		if err := json.Unmarshal(raw, &le); err != nil {
			return nil, fmt.Errorf("decoding %s error: %w", action, err)
		}
		return nil, &APIError{Action: action, Code: le.Code, Info: le.Info}
	}

	if raw, ok := body["warnings"]; ok {
		warnings, err := decodeWarnings(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %s warnings: %w", action, err)
		}
		r.Warnings = warnings
	}

	if raw, ok := body["curtimestamp"]; ok {
		if err := json.Unmarshal(raw, &r.CurTimestamp); err != nil {
			return nil, fmt.Errorf("decoding %s curtimestamp: %w", action, err)
		}
	}

	return r, nil
}

// decodeWarnings accepts both the array form and the legacy per-module
// object form ({"main": {"*": "..."}}).
func decodeWarnings(raw json.RawMessage) ([]Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var msgs []Message
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	}

	var legacy map[string]map[string]string
	if err := json.Unmarshal(trimmed, &legacy); err != nil {
		return nil, err
	}
	modules := make([]string, 0, len(legacy))
	for module := range legacy {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	msgs := make([]Message, 0, len(modules))
	for _, module := range modules {
		fields := legacy[module]
		text := fields["*"]
		if text == "" {
			text = fields["warnings"]
		}
		msgs = append(msgs, Message{Module: module, Text: text})
	}
	return msgs, nil
}

// Has reports whether the envelope has a top-level key.
func (r *Response) Has(key string) bool {
	_, ok := r.body[key]
	return ok
}

// Raw returns the undecoded value of a top-level key.
func (r *Response) Raw(key string) (json.RawMessage, bool) {
	raw, ok := r.body[key]
	return raw, ok
}

// Decode unmarshals the top-level key into v. A reply without the key, or
// with a value of the wrong shape, did not confirm the action and is
// returned as *APIError.
func (r *Response) Decode(key string, v interface{}) error {
	raw, ok := r.body[key]
	if !ok {
		return &APIError{
			Action: r.action,
			Code:   CodeMissingResult,
			Info:   fmt.Sprintf("response has no %q field", key),
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &APIError{
			Action: r.action,
			Code:   CodeBadResult,
			Info:   fmt.Sprintf("decoding %q: %v", key, err),
		}
	}
	return nil
}
