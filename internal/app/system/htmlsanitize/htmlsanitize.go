// Package htmlsanitize cleans user-entered rich text before it is stored.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	notesOnce   sync.Once
	notesPolicy *bluemonday.Policy

	strict = bluemonday.StrictPolicy()
)

// notes allows the light formatting an overseer may paste into visit
// observations: paragraphs, emphasis, lists and safe links.
func notes() *bluemonday.Policy {
	notesOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "em", "b", "i", "u", "ul", "ol", "li", "blockquote")
		p.AllowStandardURLs()
		p.AllowAttrs("href").OnElements("a")
		p.RequireNoFollowOnLinks(true)
		notesPolicy = p
	})
	return notesPolicy
}

// Sanitize keeps basic formatting and drops scripts, event handlers and
// unsafe URLs. Surrounding whitespace is trimmed.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return notes().Sanitize(s)
}

// StripTags removes all markup, leaving text content.
func StripTags(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
