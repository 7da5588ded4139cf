// Package frontmatter reads and writes the "---" delimited key: value header
// that prefixes every post file.
package frontmatter

import (
	"strings"
)

const (
	delim     = "---"
	openDelim = delim + "\n"
	closeLine = "\n" + delim + "\n"
)

// Keys written by Encode, in order.
const (
	KeyTitle   = "title"
	KeyDate    = "date"
	KeyExcerpt = "excerpt"
)

var headerKeys = []string{KeyTitle, KeyDate, KeyExcerpt}

// Parse splits text into its header fields and body. It never fails: text
// without a leading "---" block is returned whole as body with an empty map.
func Parse(text string) (map[string]string, string) {
	fields := map[string]string{}

	if !strings.HasPrefix(text, openDelim) {
		return fields, text
	}
	rest := text[len(openDelim):]
	idx := strings.Index(rest, closeLine)
	if idx < 0 {
		return fields, text
	}

	for _, line := range strings.Split(rest[:idx], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	body := rest[idx+len(closeLine):]
	// Encode separates header and body with one blank line.
	body = strings.TrimPrefix(body, "\n")
	return fields, body
}

// Encode renders the title, date and excerpt header followed by a blank
// line and body. Other keys in fields are not written.
func Encode(fields map[string]string, body string) string {
	var b strings.Builder
	b.WriteString(openDelim)
	for _, k := range headerKeys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(foldValue(fields[k]))
		b.WriteByte('\n')
	}
	b.WriteString(delim)
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String()
}

// foldValue keeps a header value on a single line.
func foldValue(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.NewReplacer("\n", " ", "\r", " ").Replace(v)
	return strings.TrimSpace(v)
}
