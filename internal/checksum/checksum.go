// Package checksum fingerprints post files for ETag / If-Match handling.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes a checksum returned by Sum for use as an entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Matches reports whether tag (bare, quoted or weak) names data.
// An empty tag or "*" always matches.
func Matches(tag string, data []byte) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "*" {
		return true
	}
	tag = strings.TrimPrefix(tag, "W/")
	return strings.Trim(tag, `"`) == Sum(data)
}
