package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	pkgstrings "wikisync/pkg/strings"
)

// DefaultSummary is used when no import summary is configured.
const DefaultSummary = "Sync from {{ .Source }}: {{ .Pages }} page(s), {{ .Moves }} move(s) since {{ .Since }}"

// Engine renders the import summary. Templates use Go template syntax with
// the sprig function set, e.g. {{ .Since | trunc 10 }}.
type Engine struct {
	tmpl *template.Template
}

// New parses text as a summary template. An empty text selects
// DefaultSummary.
func New(text string) (*Engine, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultSummary
	}
	tmpl, err := template.New("summary").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid summary template: %w", err)
	}
	return &Engine{tmpl: tmpl}, nil
}

// Render executes the template against ctx. The result is folded to one
// line and cut to the length MediaWiki keeps for a log comment.
func (e *Engine) Render(ctx Context) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	return pkgstrings.SingleLine(buf.String(), pkgstrings.MaxSummaryLen), nil
}
