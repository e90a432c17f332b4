package mediawiki

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"wikisync/pkg/logging"
)

// DefaultUserAgent is sent when Options.UserAgent is empty. Wikimedia
// installations reject requests without a descriptive user agent.
const DefaultUserAgent = "wikisync (MediaWiki sync bot)"

// Options configures a Client.
type Options struct {
	// Name identifies the wiki in logs and fixture labels ("source", "target").
	Name string
	// Endpoint is the api.php URL.
	Endpoint string
	// UserAgent is sent with every request.
	UserAgent string
	// Proxy is an optional proxy URL. When empty the HTTP(S)_PROXY
	// environment variables apply.
	Proxy string
	// OAuthToken is an optional OAuth 2 access token (owner-only consumer).
	// When set, requests carry it as a bearer token and no login is needed.
	OAuthToken string
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration
	// Transport replaces the default HTTP transport, e.g. with a
	// FixtureTransport.
	Transport http.RoundTripper
}

// Client talks to one wiki's action API. It keeps a cookie jar so that a
// login session persists across calls. A Client is meant for one run.
type Client struct {
	name      string
	endpoint  string
	userAgent string
	oauth     bool
	http      *http.Client
}

// NewClient creates a client for the given wiki.
func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("%s: api endpoint is required", opts.Name)
	}
	u, err := url.Parse(opts.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid api endpoint %q", opts.Name, opts.Endpoint)
	}

	base := opts.Transport
	if base == nil {
		base, err = NewHTTPTransport(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", opts.Name, err)
		}
	}
	if opts.OAuthToken != "" {
		base = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.OAuthToken, TokenType: "Bearer"}),
			Base:   base,
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%s: creating cookie jar: %w", opts.Name, err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		name:      opts.Name,
		endpoint:  opts.Endpoint,
		userAgent: userAgent,
		oauth:     opts.OAuthToken != "",
		http: &http.Client{
			Transport: base,
			Jar:       jar,
			Timeout:   opts.Timeout,
		},
	}, nil
}

// NewHTTPTransport returns a clone of the default transport, routed through
// proxy when one is given.
func NewHTTPTransport(proxy string) (http.RoundTripper, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", proxy, err)
		}
		t.Proxy = http.ProxyURL(u)
	}
	return t, nil
}

// Name returns the wiki's name.
func (c *Client) Name() string {
	return c.name
}

// Endpoint returns the api.php URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// UsesOAuth reports whether requests are authorized with a bearer token.
func (c *Client) UsesOAuth() bool {
	return c.oauth
}

func withDefaults(params url.Values) url.Values {
	p := url.Values{}
	for k, v := range params {
		p[k] = append([]string(nil), v...)
	}
	p.Set("format", "json")
	p.Set("formatversion", "2")
	p.Set("errorformat", "plaintext")
	return p
}

// get issues a GET request with all parameters in the query string.
func (c *Client) get(ctx context.Context, label string, params url.Values) (*Response, error) {
	p := withDefaults(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+p.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", label, err)
	}
	return c.do(req, label, p.Get("action"))
}

// postForm issues a form-encoded POST. The action and format parameters go
// in the query string so that they show up in server logs.
func (c *Client) postForm(ctx context.Context, label string, params url.Values) (*Response, error) {
	p := withDefaults(params)
	query, body := splitParams(p)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+query.Encode(), strings.NewReader(body.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, label, p.Get("action"))
}

// filePart is a file upload field of a multipart request.
type filePart struct {
	field    string
	filename string
	data     []byte
}

// postMultipart issues a multipart POST. The token parameter, if any, is
// written last so that a truncated upload fails token validation.
func (c *Client) postMultipart(ctx context.Context, label string, params url.Values, file filePart) (*Response, error) {
	p := withDefaults(params)
	query, body := splitParams(p)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(body))
	for k := range body {
		if k != "token" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range body[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("writing %s field %s: %w", label, k, err)
			}
		}
	}

	fw, err := w.CreateFormFile(file.field, file.filename)
	if err != nil {
		return nil, fmt.Errorf("creating %s file part: %w", label, err)
	}
	if _, err := fw.Write(file.data); err != nil {
		return nil, fmt.Errorf("writing %s file part: %w", label, err)
	}

	if token := body.Get("token"); token != "" {
		if err := w.WriteField("token", token); err != nil {
			return nil, fmt.Errorf("writing %s token: %w", label, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing %s body: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+query.Encode(), &buf)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", label, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, label, p.Get("action"))
}

// splitParams separates the parameters that go into the query string of a
// POST from those that go into its body.
func splitParams(p url.Values) (query, body url.Values) {
	query, body = url.Values{}, url.Values{}
	for k, v := range p {
		switch k {
		case "action", "format", "formatversion", "errorformat":
			query[k] = v
		default:
			body[k] = v
		}
	}
	return query, body
}

func (c *Client) do(req *http.Request, label, action string) (*Response, error) {
	req = req.WithContext(WithLabel(req.Context(), c.name+"/"+label))
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	logging.Debug("MediaWiki", "%s %s %s (%s)", c.name, req.Method, action, label)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, c.endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err, c.endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Endpoint:   c.endpoint,
			Kind:       TransportErrorStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", http.StatusText(resp.StatusCode)),
		}
	}

	r, err := parseResponse(action, data)
	if err != nil {
		if IsAPIError(err) {
			return nil, err
		}
		return nil, &TransportError{Endpoint: c.endpoint, Kind: TransportErrorDecode, Err: err}
	}

	for _, w := range r.Warnings {
		logging.Warn("MediaWiki", "%s %s warning [%s] %s", c.name, action, warningSource(w), w.Text)
	}
	return r, nil
}

func warningSource(m Message) string {
	if m.Code != "" {
		return m.Code
	}
	return m.Module
}
