package mock

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

const (
	// APIPath is the path of the fake api.php.
	APIPath = "/w/api.php"

	// LoginToken and CSRFToken are the tokens the fake wiki hands out.
	LoginToken = "login+\\"
	CSRFToken  = "csrf+\\"

	sessionCookie = "wikisync_fake_session"
)

// Page is a page stored on the fake wiki.
type Page struct {
	Text  string
	Minor bool
}

// Call is one request received by the fake wiki.
type Call struct {
	Method string
	// Op is the operation name: recentchanges, categorymembers, export,
	// tokens, login, move or import.
	Op     string
	Params map[string]string
}

// MoveCall is a recorded action=move request.
type MoveCall struct {
	From       string
	To         string
	Reason     string
	NoRedirect bool
}

// ImportCall is a recorded action=import request.
type ImportCall struct {
	XML              string
	Summary          string
	Tags             string
	InterwikiPrefix  string
	AssignKnownUsers bool
}

// Wiki is an in-process fake of the MediaWiki action API, good enough to
// drive a sync run end to end. Configure the exported fields before the
// first request; inspect the recorded calls afterwards.
type Wiki struct {
	// RecentChanges are formatversion=2 recent-changes entries, oldest first.
	RecentChanges []map[string]interface{}
	// Categories maps a category title to its member titles.
	Categories map[string][]string
	// Pages is the content served by export.
	Pages map[string]Page
	// Users maps bot usernames to passwords.
	Users map[string]string
	// OAuthToken, when set, is accepted as a bearer token instead of a login.
	OAuthToken string
	// MoveErrors maps a move source title to the error code to fail with.
	MoveErrors map[string]string
	// UnconfirmedMoves lists move source titles answered with a warning and
	// no move result.
	UnconfirmedMoves map[string]bool
	// Failures maps an operation name to an HTTP status to fail with.
	Failures map[string]int
	// PageSize limits list results per request. Zero means 500.
	PageSize int
	// Clock provides curtimestamp. Defaults to the real clock.
	Clock Clock

	mu      sync.Mutex
	calls   []Call
	moves   []MoveCall
	imports []ImportCall
	server  *httptest.Server
}

// NewWiki starts a fake wiki that is shut down when the test ends.
func NewWiki(t testing.TB) *Wiki {
	t.Helper()
	w := &Wiki{
		Categories: make(map[string][]string),
		Pages:      make(map[string]Page),
		Users:      make(map[string]string),
		MoveErrors:       make(map[string]string),
		UnconfirmedMoves: make(map[string]bool),
		Failures:         make(map[string]int),
		Clock:            RealClock{},
	}
	w.server = httptest.NewServer(w.Router())
	t.Cleanup(w.server.Close)
	return w
}

// Endpoint returns the URL of the fake api.php.
func (w *Wiki) Endpoint() string {
	return w.server.URL + APIPath
}

// Router returns the request router of the fake wiki.
func (w *Wiki) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(APIPath, w.handleQuery).Methods(http.MethodGet).Queries("action", "query")
	r.HandleFunc(APIPath, w.handleLogin).Methods(http.MethodPost).Queries("action", "login")
	r.HandleFunc(APIPath, w.handleMove).Methods(http.MethodPost).Queries("action", "move")
	r.HandleFunc(APIPath, w.handleImport).Methods(http.MethodPost).Queries("action", "import")
	r.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		writeError(rw, "badvalue", fmt.Sprintf("Unrecognized value for parameter \"action\": %s.", req.URL.Query().Get("action")))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		writeError(rw, "mustbeposted", "The action must be posted.")
	})
	return r
}

// Calls returns every recorded request.
func (w *Wiki) Calls() []Call {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Call(nil), w.calls...)
}

// CallCount returns how many requests of the operation were received.
func (w *Wiki) CallCount(op string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Moves returns the recorded successful and failed move requests.
func (w *Wiki) Moves() []MoveCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]MoveCall(nil), w.moves...)
}

// Imports returns the recorded import requests.
func (w *Wiki) Imports() []ImportCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ImportCall(nil), w.imports...)
}

// AddChange appends a new or edit entry to the recent-changes feed.
func (w *Wiki) AddChange(changeType, title string, minor bool, timestamp string) {
	w.RecentChanges = append(w.RecentChanges, map[string]interface{}{
		"type":      changeType,
		"ns":        0,
		"title":     title,
		"pageid":    len(w.RecentChanges) + 1,
		"minor":     minor,
		"timestamp": timestamp,
	})
}

// AddLog appends a log entry to the recent-changes feed.
func (w *Wiki) AddLog(logType, action, title string, params map[string]interface{}, timestamp string) {
	entry := map[string]interface{}{
		"type":      "log",
		"ns":        0,
		"title":     title,
		"pageid":    0,
		"minor":     false,
		"timestamp": timestamp,
		"logtype":   logType,
		"logaction": action,
	}
	if params == nil {
		entry["logparams"] = []interface{}{}
	} else {
		entry["logparams"] = params
	}
	w.RecentChanges = append(w.RecentChanges, entry)
}

func (w *Wiki) record(r *http.Request, op string) {
	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		params[k] = strings.Join(v, "|")
	}
	if r.Method == http.MethodPost {
		for k, v := range r.PostForm {
			params[k] = strings.Join(v, "|")
		}
		if r.MultipartForm != nil {
			for k, v := range r.MultipartForm.Value {
				params[k] = strings.Join(v, "|")
			}
		}
	}
	w.mu.Lock()
	w.calls = append(w.calls, Call{Method: r.Method, Op: op, Params: params})
	w.mu.Unlock()
}

func (w *Wiki) failed(rw http.ResponseWriter, op string) bool {
	w.mu.Lock()
	status := w.Failures[op]
	w.mu.Unlock()
	if status == 0 {
		return false
	}
	http.Error(rw, http.StatusText(status), status)
	return true
}

func (w *Wiki) authorized(r *http.Request) bool {
	if w.OAuthToken != "" && r.Header.Get("Authorization") == "Bearer "+w.OAuthToken {
		return true
	}
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value != ""
}

func (w *Wiki) pageSize() int {
	if w.PageSize > 0 {
		return w.PageSize
	}
	return 500
}

func (w *Wiki) curTimestamp() string {
	return w.Clock.Now().UTC().Format(time.RFC3339)
}

func (w *Wiki) handleQuery(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("meta") == "tokens":
		w.record(r, "tokens")
		if w.failed(rw, "tokens") {
			return
		}
		w.serveTokens(rw, r)
	case q.Get("list") == "recentchanges":
		w.record(r, "recentchanges")
		if w.failed(rw, "recentchanges") {
			return
		}
		w.serveRecentChanges(rw, r)
	case q.Get("list") == "categorymembers":
		w.record(r, "categorymembers")
		if w.failed(rw, "categorymembers") {
			return
		}
		w.serveCategoryMembers(rw, r)
	case q.Get("export") != "":
		w.record(r, "export")
		if w.failed(rw, "export") {
			return
		}
		w.serveExport(rw, r)
	default:
		writeError(rw, "invalidparammix", "Unsupported query.")
	}
}

func (w *Wiki) serveTokens(rw http.ResponseWriter, r *http.Request) {
	tokens := map[string]string{}
	if r.URL.Query().Get("type") == "login" {
		tokens["logintoken"] = LoginToken
	} else if w.authorized(r) {
		tokens["csrftoken"] = CSRFToken
	} else {
		tokens["csrftoken"] = "+\\"
	}
	writeJSON(rw, map[string]interface{}{
		"batchcomplete": true,
		"query":         map[string]interface{}{"tokens": tokens},
	})
}

func (w *Wiki) serveRecentChanges(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := q.Get("rcstart")

	var matching []map[string]interface{}
	for _, e := range w.RecentChanges {
		if ts, _ := e["timestamp"].(string); start == "" || ts >= start {
			matching = append(matching, e)
		}
	}

	items := make([]interface{}, len(matching))
	for i, e := range matching {
		items[i] = e
	}
	w.servePage(rw, q.Get("rccontinue"), "rccontinue", "recentchanges", items, q.Get("curtimestamp") != "")
}

func (w *Wiki) serveCategoryMembers(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	members := w.Categories[q.Get("cmtitle")]
	items := make([]interface{}, len(members))
	for i, title := range members {
		items[i] = map[string]interface{}{"ns": 0, "title": title}
	}
	w.servePage(rw, q.Get("cmcontinue"), "cmcontinue", "categorymembers", items, false)
}

// servePage writes one continuation page of a list. An empty list is
// answered without a query field, as some wikis do.
func (w *Wiki) servePage(rw http.ResponseWriter, cont, contKey, list string, items []interface{}, withTime bool) {
	offset, _ := strconv.Atoi(cont)
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + w.pageSize()
	if end > len(items) {
		end = len(items)
	}

	resp := map[string]interface{}{"batchcomplete": true}
	if withTime {
		resp["curtimestamp"] = w.curTimestamp()
	}
	if len(items) > 0 {
		resp["query"] = map[string]interface{}{list: items[offset:end]}
	}
	if end < len(items) {
		resp["continue"] = map[string]interface{}{contKey: strconv.Itoa(end), "continue": "-||"}
	}
	writeJSON(rw, resp)
}

func (w *Wiki) serveExport(rw http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString(`<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.11/" version="0.11" xml:lang="en">` + "\n")
	b.WriteString("  <siteinfo>\n    <sitename>Fake</sitename>\n  </siteinfo>\n")

	for _, title := range strings.Split(r.URL.Query().Get("titles"), "|") {
		p, ok := w.Pages[title]
		if !ok {
			continue
		}
		b.WriteString("  <page>\n")
		b.WriteString("    <title>" + html.EscapeString(title) + "</title>\n")
		b.WriteString("    <ns>0</ns>\n")
		b.WriteString("    <revision>\n")
		if p.Minor {
			b.WriteString("      <minor/>\n")
		}
		b.WriteString("      <text xml:space=\"preserve\">" + html.EscapeString(p.Text) + "</text>\n")
		b.WriteString("    </revision>\n")
		b.WriteString("  </page>\n")
	}
	b.WriteString("</mediawiki>\n")

	writeJSON(rw, map[string]interface{}{
		"batchcomplete": true,
		"query":         map[string]interface{}{"export": b.String()},
	})
}

func (w *Wiki) handleLogin(rw http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.record(r, "login")
	if w.failed(rw, "login") {
		return
	}

	if r.PostForm.Get("lgtoken") != LoginToken {
		writeJSON(rw, map[string]interface{}{"login": map[string]interface{}{
			"result": "WrongToken",
		}})
		return
	}

	name, password := r.PostForm.Get("lgname"), r.PostForm.Get("lgpassword")
	if expected, ok := w.Users[name]; !ok || expected != password {
		writeJSON(rw, map[string]interface{}{"login": map[string]interface{}{
			"result": "Failed",
			"reason": "Incorrect username or password entered. Please try again.",
		}})
		return
	}

	http.SetCookie(rw, &http.Cookie{Name: sessionCookie, Value: name, Path: "/"})
	writeJSON(rw, map[string]interface{}{"login": map[string]interface{}{
		"result":     "Success",
		"lgusername": name,
	}})
}

func (w *Wiki) handleMove(rw http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	w.record(r, "move")
	if w.failed(rw, "move") {
		return
	}
	if !w.checkToken(rw, r, r.PostForm.Get("token")) {
		return
	}

	call := MoveCall{
		From:       r.PostForm.Get("from"),
		To:         r.PostForm.Get("to"),
		Reason:     r.PostForm.Get("reason"),
		NoRedirect: r.PostForm.Get("noredirect") != "",
	}
	w.mu.Lock()
	w.moves = append(w.moves, call)
	code := w.MoveErrors[call.From]
	unconfirmed := w.UnconfirmedMoves[call.From]
	w.mu.Unlock()

	if code != "" {
		writeError(rw, code, fmt.Sprintf("Cannot move %s.", call.From))
		return
	}
	if unconfirmed {
		writeJSON(rw, map[string]interface{}{"warnings": []map[string]interface{}{
			{"code": "unrecognizedparams", "text": "Unrecognized parameter.", "module": "move"},
		}})
		return
	}
	writeJSON(rw, map[string]interface{}{"move": map[string]interface{}{
		"from":   call.From,
		"to":     call.To,
		"reason": call.Reason,
	}})
}

var importTitle = regexp.MustCompile(`<title>(.*?)</title>`)

func (w *Wiki) handleImport(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(rw, "badupload", err.Error())
		return
	}
	w.record(r, "import")
	if w.failed(rw, "import") {
		return
	}
	if !w.checkToken(rw, r, r.FormValue("token")) {
		return
	}

	file, _, err := r.FormFile("xml")
	if err != nil {
		writeError(rw, "nofile", "You did not upload a file.")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(rw, "badupload", err.Error())
		return
	}

	call := ImportCall{
		XML:              string(data),
		Summary:          r.FormValue("summary"),
		Tags:             r.FormValue("tags"),
		InterwikiPrefix:  r.FormValue("interwikiprefix"),
		AssignKnownUsers: r.FormValue("assignknownusers") != "",
	}
	w.mu.Lock()
	w.imports = append(w.imports, call)
	w.mu.Unlock()

	var pages []map[string]interface{}
	for _, m := range importTitle.FindAllStringSubmatch(call.XML, -1) {
		pages = append(pages, map[string]interface{}{
			"ns":        0,
			"title":     html.UnescapeString(m[1]),
			"revisions": 1,
		})
	}
	writeJSON(rw, map[string]interface{}{"import": pages})
}

func (w *Wiki) checkToken(rw http.ResponseWriter, r *http.Request, token string) bool {
	if !w.authorized(r) {
		writeError(rw, "permissiondenied", "You don't have permission to do this.")
		return false
	}
	if token != CSRFToken {
		writeError(rw, "badtoken", "Invalid CSRF token.")
		return false
	}
	return true
}

func writeJSON(rw http.ResponseWriter, v interface{}) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, code, text string) {
	writeJSON(rw, map[string]interface{}{
		"errors": []map[string]string{{"code": code, "text": text, "module": "main"}},
		"docref": "See /w/api.php for API usage.",
	})
}
