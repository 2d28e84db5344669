package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// maxSanitizeRounds bounds the unescape/strip loop; each extra round peels one level of entity encoding.
const maxSanitizeRounds = 4

// Sanitize strips markup from user text and trims it. Entities are unescaped so plain text
// round-trips unchanged, and the policy runs again on the decoded text until it is stable, so
// entity-encoded tags never come back as markup.
func Sanitize(input string) string {
	out := input
	for i := 0; i < maxSanitizeRounds; i++ {
		next := strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(out)))
		if next == out {
			return out
		}
		out = next
	}
	// still decoding after the last round: keep the policy output escaped
	return strings.TrimSpace(sanitizer.Sanitize(out))
}
