// Package sanitize strips markup from applicant-supplied free text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Text removes every HTML element and attribute from free text.
type Text struct {
	policy *bluemonday.Policy
}

// NewText builds a sanitizer backed by bluemonday's strict policy.
func NewText() *Text {
	return &Text{policy: bluemonday.StrictPolicy()}
}

// Clean returns s with markup removed and surrounding whitespace trimmed. The
// result is plain text: entities the policy escapes are decoded again, so
// callers store what the applicant typed and must escape it when rendering.
func (t *Text) Clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(t.policy.Sanitize(s)))
}
