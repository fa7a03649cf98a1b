// Package htmlsanitize cleans user-authored text before it is stored.
// Rich fields (forum descriptions, comment bodies) keep a small formatting
// subset; single-line fields (titles, names) lose all markup.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy   = newRichPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AllowAttrs("href").OnElements("a")

	p.AllowElements(
		"p", "br", "hr",
		"strong", "b", "em", "i", "u", "s", "sub", "sup", "mark",
		"blockquote", "pre", "code",
		"ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)
	p.AllowImages()
	p.AllowTables()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("class").OnElements("table", "tr", "td", "th")
	return p
}

// Sanitize strips everything outside the rich-text allow list.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// StripTags removes all markup and returns trimmed plain text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// IsPlainText reports whether s contains no tag-like sequence.
func IsPlainText(s string) bool {
	lt := strings.Index(s, "<")
	return lt < 0 || !strings.Contains(s[lt:], ">")
}

// Content prepares a rich field for storage: plain text is only trimmed,
// anything with markup goes through Sanitize.
func Content(s string) string {
	s = strings.TrimSpace(s)
	if IsPlainText(s) {
		return s
	}
	return strings.TrimSpace(Sanitize(s))
}
