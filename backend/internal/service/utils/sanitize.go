package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips every html tag from s and trims surrounding whitespace.
// Entities escaped by the policy are decoded back, responses are json, not html.
// Decoding can turn "&lt;b&gt;" into a tag, so the text is stripped again
// until a pass removes nothing. Every pass that changes s shortens it.
func Text(s string) string {
	for s != "" {
		clean := html.UnescapeString(strict.Sanitize(s))
		if len(clean) >= len(s) {
			s = clean
			break
		}
		s = clean
	}
	return strings.TrimSpace(s)
}
