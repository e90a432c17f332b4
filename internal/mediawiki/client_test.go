package mediawiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikisync/internal/reconciler"
	"wikisync/internal/testing/mock"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newFakeWiki(t *testing.T) *mock.Wiki {
	t.Helper()
	w := mock.NewWiki(t)
	w.Clock = mock.NewMockClock(fixedNow)
	return w
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(Options{Name: "test", Endpoint: endpoint, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "missing endpoint", opts: Options{Name: "source"}},
		{name: "relative endpoint", opts: Options{Name: "source", Endpoint: "/w/api.php"}},
		{name: "bad proxy", opts: Options{Name: "source", Endpoint: "https://example.org/w/api.php", Proxy: "http://[::1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.opts)
			assert.Error(t, err)
		})
	}

	c, err := NewClient(Options{Name: "source", Endpoint: "https://example.org/w/api.php"})
	require.NoError(t, err)
	assert.Equal(t, "source", c.Name())
	assert.Equal(t, "https://example.org/w/api.php", c.Endpoint())
	assert.False(t, c.UsesOAuth())
}

func TestRecentChanges_Pagination(t *testing.T) {
	w := newFakeWiki(t)
	w.PageSize = 2
	w.AddChange("new", "A", true, "2024-01-01T00:00:01Z")
	w.AddChange("edit", "A", false, "2024-01-01T00:00:02Z")
	w.AddLog("move", "move", "A", map[string]interface{}{"target_ns": 0, "target_title": "B", "suppressredirect": true}, "2024-01-01T00:00:03Z")
	w.AddLog("delete", "delete", "C", nil, "2024-01-01T00:00:04Z")
	w.AddChange("edit", "D", true, "2024-01-01T00:00:05Z")

	c := newTestClient(t, w.Endpoint())
	rc, err := c.RecentChanges(context.Background(), "2024-01-01T00:00:00Z")
	require.NoError(t, err)

	assert.Equal(t, 3, w.CallCount("recentchanges"))
	assert.Equal(t, "2024-03-01T12:00:00Z", rc.CurTimestamp)
	require.Len(t, rc.Events, 5)

	titles := make([]string, 0, len(rc.Events))
	for _, ev := range rc.Events {
		titles = append(titles, ev.Title)
	}
	assert.Equal(t, []string{"A", "A", "A", "C", "D"}, titles)

	assert.Equal(t, reconciler.EventNew, rc.Events[0].Type)
	assert.True(t, rc.Events[0].Minor)
	assert.False(t, rc.Events[1].Minor)

	move := rc.Events[2]
	require.NotNil(t, move.Log)
	assert.True(t, move.IsLog(reconciler.LogTypeMove, reconciler.LogActionMove))
	assert.Equal(t, "B", move.Log.Params.TargetTitle)
	assert.True(t, move.Log.Params.SuppressRedirect)

	del := rc.Events[3]
	require.NotNil(t, del.Log)
	assert.True(t, del.IsLog(reconciler.LogTypeDelete))
	assert.Empty(t, del.Log.Params.TargetTitle)

	for _, call := range w.Calls() {
		assert.Equal(t, "2", call.Params["formatversion"])
		assert.Equal(t, "plaintext", call.Params["errorformat"])
		assert.Equal(t, "newer", call.Params["rcdir"])
		assert.Equal(t, "new|edit|log", call.Params["rctype"])
	}
}

func TestRecentChanges_StartIsRespected(t *testing.T) {
	w := newFakeWiki(t)
	w.AddChange("edit", "Old", false, "2023-12-31T23:59:59Z")
	w.AddChange("edit", "New", false, "2024-01-01T00:00:00Z")

	c := newTestClient(t, w.Endpoint())
	rc, err := c.RecentChanges(context.Background(), "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, rc.Events, 1)
	assert.Equal(t, "New", rc.Events[0].Title)
}

func TestRecentChanges_EmptyFirstPage(t *testing.T) {
	w := newFakeWiki(t)

	c := newTestClient(t, w.Endpoint())
	rc, err := c.RecentChanges(context.Background(), "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Empty(t, rc.Events)
	assert.Equal(t, "2024-03-01T12:00:00Z", rc.CurTimestamp)
	assert.Equal(t, 1, w.CallCount("recentchanges"))
}

func TestRecentChanges_LegacyFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{
			"curtimestamp": "2024-01-02T00:00:00Z",
			"query": {"recentchanges": [
				{"type": "edit", "title": "A", "minor": "", "timestamp": "2024-01-01T00:00:01Z"},
				{"type": "edit", "title": "B", "timestamp": "2024-01-01T00:00:02Z"},
				{"type": "log", "title": "B", "logtype": "move", "logaction": "move_redir",
				 "logparams": {"target_title": "C", "suppressredirect": ""}, "timestamp": "2024-01-01T00:00:03Z"},
				{"type": "categorize", "title": "Category:X", "timestamp": "2024-01-01T00:00:04Z"}
			]}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	rc, err := c.RecentChanges(context.Background(), "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, rc.Events, 3, "entries of other types are skipped")
	assert.True(t, rc.Events[0].Minor)
	assert.False(t, rc.Events[1].Minor)
	assert.True(t, rc.Events[2].Log.Params.SuppressRedirect)
	assert.Equal(t, "C", rc.Events[2].Log.Params.TargetTitle)
}

func TestRecentChanges_MissingCurTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{"batchcomplete": true}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).RecentChanges(context.Background(), "2024-01-01T00:00:00Z")
	assert.Error(t, err)
}

func TestQueryAll_ErrorAbortsFetch(t *testing.T) {
	w := newFakeWiki(t)
	w.Failures["recentchanges"] = http.StatusBadGateway
	w.AddChange("edit", "A", false, "2024-01-01T00:00:01Z")

	_, err := newTestClient(t, w.Endpoint()).RecentChanges(context.Background(), "2024-01-01T00:00:00Z")
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, TransportErrorStatus, transportErr.Kind)
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
}

func TestQueryAll_MergesListsAndScalars(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		page++
		switch page {
		case 1:
			assert.Empty(t, r.URL.Query().Get("xcontinue"))
			_, _ = rw.Write([]byte(`{"continue": {"xcontinue": 7, "continue": "-||"},
				"query": {"items": [1, 2], "total": 2}}`))
		default:
			assert.Equal(t, "7", r.URL.Query().Get("xcontinue"))
			assert.Equal(t, "-||", r.URL.Query().Get("continue"))
			_, _ = rw.Write([]byte(`{"query": {"items": [3], "total": 3}}`))
		}
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).QueryAll(context.Background(), "items", url.Values{"list": {"items"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)

	var items []int
	require.NoError(t, res.List("items", &items))
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.JSONEq(t, `3`, string(res.Values["total"]))

	var missing []string
	require.NoError(t, res.List("missing", &missing))
	assert.Empty(t, missing)
}

func TestAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{"errors": [
			{"code": "readapidenied", "text": "You need read permission.", "module": "main"},
			{"code": "other", "text": "Second.", "module": "main"}
		]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).CategoryMembers(context.Background(), "Private")
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.True(t, IsAPIError(err, "readapidenied"))
	assert.False(t, IsAPIError(err, "badtoken"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "query", apiErr.Action)
	assert.Len(t, apiErr.Additional, 1)
	assert.Contains(t, apiErr.Error(), "and 1 more")
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).CSRFToken(context.Background())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, TransportErrorDecode, transportErr.Kind)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := newTestClient(t, endpoint).CSRFToken(context.Background())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, TransportErrorNetwork, transportErr.Kind)
	assert.Equal(t, endpoint, transportErr.Endpoint)
}

func TestCategoryMembers(t *testing.T) {
	w := newFakeWiki(t)
	w.PageSize = 1
	w.Categories["Category:Private"] = []string{"Secret", "Hidden"}

	members, err := newTestClient(t, w.Endpoint()).CategoryMembers(context.Background(), "Private")
	require.NoError(t, err)
	assert.Equal(t, []string{"Secret", "Hidden"}, members)
	assert.Equal(t, 2, w.CallCount("categorymembers"))

	w.Categories["Category:Drafts: old"] = []string{"Draft"}
	members, err = newTestClient(t, w.Endpoint()).CategoryMembers(context.Background(), "Drafts: old")
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft"}, members)
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Category:Private", CategoryTitle("Private"))
	assert.Equal(t, "Category:Private", CategoryTitle(" Category:Private "))
	assert.Equal(t, "category:Private", CategoryTitle("category:Private"))
	assert.Equal(t, "Category:Drafts: old", CategoryTitle("Drafts: old"))
	assert.Equal(t, "Category:Kategorie:Intern", CategoryTitle("Kategorie:Intern"))
}

func TestExport(t *testing.T) {
	w := newFakeWiki(t)
	w.Pages["A"] = mock.Page{Text: "alpha", Minor: true}
	w.Pages["B & C"] = mock.Page{Text: "beta"}

	xml, err := newTestClient(t, w.Endpoint()).Export(context.Background(), []string{"A", "B & C", "Missing"})
	require.NoError(t, err)
	assert.Contains(t, xml, "<title>A</title>")
	assert.Contains(t, xml, "<title>B &amp; C</title>")
	assert.NotContains(t, xml, "Missing")
	assert.Contains(t, xml, "<minor/>")

	_, err = newTestClient(t, w.Endpoint()).Export(context.Background(), nil)
	assert.Error(t, err)
}

func TestDecodeExport(t *testing.T) {
	xml, err := decodeExport([]byte(`{"*": "<mediawiki></mediawiki>"}`))
	require.NoError(t, err)
	assert.Equal(t, "<mediawiki></mediawiki>", xml)

	_, err = decodeExport(nil)
	assert.Error(t, err)

	_, err = decodeExport([]byte(`"not xml"`))
	assert.Error(t, err)
}

func TestLoginAndCSRFToken(t *testing.T) {
	w := newFakeWiki(t)
	w.Users["Bot@sync"] = "secret"
	c := newTestClient(t, w.Endpoint())

	require.NoError(t, c.Login(context.Background(), "Bot@sync", "secret"))

	token, err := c.CSRFToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mock.CSRFToken, token)

	var login mock.Call
	for _, call := range w.Calls() {
		if call.Op == "login" {
			login = call
		}
	}
	assert.Equal(t, http.MethodPost, login.Method)
	assert.Equal(t, mock.LoginToken, login.Params["lgtoken"])
}

func TestLogin_Failure(t *testing.T) {
	w := newFakeWiki(t)
	w.Users["Bot@sync"] = "secret"
	c := newTestClient(t, w.Endpoint())

	err := c.Login(context.Background(), "Bot@sync", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, &AuthError{}))

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Failed", authErr.Result)
	assert.Contains(t, authErr.Reason, "Incorrect username or password")

	token, err := c.CSRFToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "+\\", token, "an anonymous session only gets the anonymous token")
}

func TestOAuthBearer(t *testing.T) {
	w := newFakeWiki(t)
	w.OAuthToken = "owner-only"

	c, err := NewClient(Options{Name: "target", Endpoint: w.Endpoint(), OAuthToken: "owner-only"})
	require.NoError(t, err)
	assert.True(t, c.UsesOAuth())

	token, err := c.CSRFToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mock.CSRFToken, token)
	assert.Equal(t, 0, w.CallCount("login"))
}

func TestMove(t *testing.T) {
	w := newFakeWiki(t)
	w.Users["Bot"] = "pw"
	w.MoveErrors["Gone"] = "missingtitle"
	c := newTestClient(t, w.Endpoint())
	require.NoError(t, c.Login(context.Background(), "Bot", "pw"))
	token, err := c.CSRFToken(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Move(context.Background(), MoveRequest{
		From: "A", To: "B", Reason: "sync", NoRedirect: true, Token: token,
	}))

	err = c.Move(context.Background(), MoveRequest{From: "Gone", To: "X", Token: token})
	assert.True(t, IsAPIError(err, "missingtitle"))

	err = c.Move(context.Background(), MoveRequest{From: "A", To: "B", Token: "bogus"})
	assert.True(t, IsAPIError(err, "badtoken"))

	err = c.Move(context.Background(), MoveRequest{From: "A", Token: token})
	assert.True(t, IsAPIError(err, CodeMissingParam))

	w.UnconfirmedMoves["C"] = true
	err = c.Move(context.Background(), MoveRequest{From: "C", To: "D", Token: token})
	assert.True(t, IsAPIError(err, CodeMissingResult), "a reply without a move result is an api error: %v", err)

	moves := w.Moves()
	require.Len(t, moves, 3, "requests rejected for their token are not recorded")
	assert.Equal(t, mock.MoveCall{From: "A", To: "B", Reason: "sync", NoRedirect: true}, moves[0])
	assert.False(t, moves[1].NoRedirect)
}

func TestImport(t *testing.T) {
	w := newFakeWiki(t)
	w.OAuthToken = "tok"
	c, err := NewClient(Options{Name: "target", Endpoint: w.Endpoint(), OAuthToken: "tok"})
	require.NoError(t, err)

	xml := "<mediawiki>\n  <page>\n    <title>A</title>\n  </page>\n  <page>\n    <title>B</title>\n  </page>\n</mediawiki>\n"
	pages, err := c.Import(context.Background(), ImportRequest{
		XML:              xml,
		Summary:          "sync run",
		Tags:             []string{"sync", "bot"},
		InterwikiPrefix:  "src",
		AssignKnownUsers: true,
		Token:            mock.CSRFToken,
	})
	require.NoError(t, err)
	assert.Equal(t, []ImportedPage{{NS: 0, Title: "A", Revisions: 1}, {NS: 0, Title: "B", Revisions: 1}}, pages)

	imports := w.Imports()
	require.Len(t, imports, 1)
	assert.Equal(t, xml, imports[0].XML)
	assert.Equal(t, "sync run", imports[0].Summary)
	assert.Equal(t, "sync|bot", imports[0].Tags)
	assert.Equal(t, "src", imports[0].InterwikiPrefix)
	assert.True(t, imports[0].AssignKnownUsers)

	_, err = c.Import(context.Background(), ImportRequest{XML: xml})
	assert.True(t, IsAPIError(err, CodeMissingParam))
}

func TestTransportErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind TransportErrorKind
	}{
		{errors.New("x509: certificate signed by unknown authority"), TransportErrorTLS},
		{errors.New("dial tcp 10.0.0.1:443: connect: connection refused"), TransportErrorNetwork},
		{errors.New("context deadline exceeded"), TransportErrorTimeout},
		{errors.New("something else"), TransportErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got := classifyTransportError(tt.err, "https://example.org/w/api.php")
			assert.Equal(t, tt.kind, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
