package mediawiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"wikisync/pkg/logging"
)

type labelKey struct{}

// WithLabel tags a request context with the call-site label used to name
// recorded fixtures.
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey{}, label)
}

// LabelFromContext returns the call-site label, or "" if none was set.
func LabelFromContext(ctx context.Context) string {
	label, _ := ctx.Value(labelKey{}).(string)
	return label
}

// FixtureMode selects what a FixtureTransport does.
type FixtureMode string

const (
	// FixtureOff passes requests through untouched.
	FixtureOff FixtureMode = ""
	// FixtureRecord performs real requests and writes every response to disk.
	FixtureRecord FixtureMode = "record"
	// FixtureReplay serves responses from disk without touching the network.
	FixtureReplay FixtureMode = "replay"
)

// ParseFixtureMode converts a config string into a FixtureMode.
func ParseFixtureMode(s string) (FixtureMode, error) {
	switch FixtureMode(strings.ToLower(strings.TrimSpace(s))) {
	case FixtureOff, "off", "none":
		return FixtureOff, nil
	case FixtureRecord:
		return FixtureRecord, nil
	case FixtureReplay:
		return FixtureReplay, nil
	default:
		return FixtureOff, fmt.Errorf("unknown fixture mode %q (expected record or replay)", s)
	}
}

// Fixture is one recorded HTTP exchange.
type Fixture struct {
	Label       string `yaml:"label"`
	Method      string `yaml:"method"`
	Status      int    `yaml:"status"`
	ContentType string `yaml:"contentType,omitempty"`
	Body        string `yaml:"body"`
}

// FixtureTransport records or replays responses keyed by request label and
// a per-label sequence number, so repeated calls with the same label map to
// successive files (recentchanges-1_001.yaml, recentchanges-1_002.yaml, ...).
type FixtureTransport struct {
	dir  string
	mode FixtureMode
	base http.RoundTripper

	mu  sync.Mutex
	seq map[string]int
}

// NewFixtureTransport creates a transport rooted at dir. base is used in
// record mode and may be nil in replay mode.
func NewFixtureTransport(dir string, mode FixtureMode, base http.RoundTripper) (*FixtureTransport, error) {
	if dir == "" {
		return nil, fmt.Errorf("fixture directory is required")
	}
	switch mode {
	case FixtureRecord:
		if base == nil {
			return nil, fmt.Errorf("record mode needs an underlying transport")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create fixture directory %s: %w", dir, err)
		}
	case FixtureReplay:
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("fixture directory %s: %w", dir, err)
		}
	default:
		return nil, fmt.Errorf("fixture transport needs record or replay mode, got %q", mode)
	}
	return &FixtureTransport{dir: dir, mode: mode, base: base, seq: make(map[string]int)}, nil
}

// RoundTrip implements http.RoundTripper.
func (t *FixtureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	label := LabelFromContext(req.Context())
	if label == "" {
		label = "unlabeled"
	}

	t.mu.Lock()
	t.seq[label]++
	n := t.seq[label]
	t.mu.Unlock()

	path := filepath.Join(t.dir, fmt.Sprintf("%s_%03d.yaml", sanitizeLabel(label), n))

	if t.mode == FixtureReplay {
		if req.Body != nil {
			req.Body.Close()
		}
		return t.replay(req, path)
	}
	return t.record(req, label, path)
}

func (t *FixtureTransport) replay(req *http.Request, path string) (*http.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no recorded fixture for %s: %w", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	if f.Method != "" && f.Method != req.Method {
		return nil, fmt.Errorf("fixture %s was recorded for %s, got %s", path, f.Method, req.Method)
	}

	logging.Debug("MediaWiki", "Replaying %s", path)

	header := make(http.Header)
	if f.ContentType != "" {
		header.Set("Content-Type", f.ContentType)
	}
	status := f.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(f.Body)),
		ContentLength: int64(len(f.Body)),
		Request:       req,
	}, nil
}

func (t *FixtureTransport) record(req *http.Request, label, path string) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	f := Fixture{
		Label:       label,
		Method:      req.Method,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fixture %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write fixture %s: %w", path, err)
	}
	logging.Debug("MediaWiki", "Recorded %s", path)

	resp.Body = io.NopCloser(strings.NewReader(f.Body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

// sanitizeLabel makes a label safe to use as a file name.
func sanitizeLabel(label string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '.', ' ':
			return '_'
		}
		return r
	}, label)

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "unlabeled"
	}
	return sanitized
}
