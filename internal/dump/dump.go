// Package dump post-processes MediaWiki XML export documents before they are
// imported into the target wiki.
//
// Documents are handled as text. Re-encoding them with encoding/xml would
// rewrite namespaces, attribute order and whitespace of revision text, and
// the import would no longer carry the source revisions byte for byte.
package dump

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	pagePattern  = regexp.MustCompile(`(?s)<page>.*?</page>`)
	titlePattern = regexp.MustCompile(`(?s)<title>(.*?)</title>`)
	minorPattern = regexp.MustCompile(`[ \t]*<minor\s*/>[ \t]*\r?\n?`)
)

const closingTag = "</mediawiki>"

// PatchMinor removes the <minor/> marker from every revision of a page whose
// title maps to false in minorByTitle. Pages missing from the map are left
// unchanged. The number of patched pages is returned.
func PatchMinor(xml string, minorByTitle map[string]bool) (string, int) {
	patched := 0
	out := pagePattern.ReplaceAllStringFunc(xml, func(page string) string {
		title, ok := pageTitle(page)
		if !ok {
			return page
		}
		minor, known := minorByTitle[title]
		if !known || minor {
			return page
		}
		stripped := minorPattern.ReplaceAllString(page, "")
		if stripped != page {
			patched++
		}
		return stripped
	})
	return out, patched
}

// Titles returns the titles of all pages in the document, in document order.
func Titles(xml string) []string {
	pages := pagePattern.FindAllString(xml, -1)
	titles := make([]string, 0, len(pages))
	for _, page := range pages {
		if title, ok := pageTitle(page); ok {
			titles = append(titles, title)
		}
	}
	return titles
}

// PageCount returns the number of <page> elements in the document.
func PageCount(xml string) int {
	return len(pagePattern.FindAllStringIndex(xml, -1))
}

// Merge combines export documents into one. The header and <siteinfo> of the
// first document are kept and the pages of all documents are concatenated
// in order.
func Merge(docs ...string) (string, error) {
	if len(docs) == 0 {
		return "", fmt.Errorf("no documents to merge")
	}
	if len(docs) == 1 {
		return docs[0], nil
	}

	first := docs[0]
	end := strings.LastIndex(first, closingTag)
	if end < 0 {
		return "", fmt.Errorf("document 1 has no %s closing tag", closingTag)
	}

	var b strings.Builder
	b.WriteString(first[:end])
	for i, doc := range docs[1:] {
		if !strings.Contains(doc, closingTag) {
			return "", fmt.Errorf("document %d has no %s closing tag", i+2, closingTag)
		}
		for _, page := range pagePattern.FindAllString(doc, -1) {
			b.WriteString("  ")
			b.WriteString(page)
			b.WriteString("\n")
		}
	}
	b.WriteString(first[end:])
	return b.String(), nil
}

func pageTitle(page string) (string, bool) {
	m := titlePattern.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	return html.UnescapeString(strings.TrimSpace(m[1])), true
}
