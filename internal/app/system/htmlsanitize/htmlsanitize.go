// Package htmlsanitize strips markup from user-supplied post and comment
// text before it is stored. Announcements are plain text; anything that
// looks like HTML is treated as an injection attempt, not as formatting.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain removes all HTML elements and attributes from s and trims
// surrounding whitespace. The result is safe to store and to echo back
// into any HTML or JSON context.
func Plain(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
