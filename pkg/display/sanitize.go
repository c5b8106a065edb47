package display

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitize prepares relayed text for a terminal. Invalid UTF-8 becomes U+FFFD and control
// characters other than newline and tab are dropped, so page text cannot inject escape
// sequences. The consumer's state keeps the raw text; only surfaces call this.
func Sanitize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\r' {
			continue
		}
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// \r is not safe: a bare carriage return lets later text overwrite the line.
func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t'
}
