// Package slug normalizes post identifiers into URL- and filename-safe form.
package slug

import (
	"regexp"
	"strings"
)

var (
	unsafeRe = regexp.MustCompile(`[^a-z0-9-]`)
	dashesRe = regexp.MustCompile(`-+`)
)

// Normalize lower-cases s, replaces every character outside [a-z0-9-]
// with a hyphen, collapses hyphen runs and trims hyphens at either end.
// The result may be empty.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = unsafeRe.ReplaceAllString(s, "-")
	s = dashesRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
