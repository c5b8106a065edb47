package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SummarySentences is how many leading sentences Summarize keeps.
const SummarySentences = 3

// Summarize returns the first SummarySentences sentences of text joined by single spaces.
// A sentence ends at '.', '!' or '?' followed by whitespace. Text without a boundary is
// returned whole.
func Summarize(text string) string {
	if text == "" {
		return ""
	}
	sentences := splitSentences(text, SummarySentences)
	return strings.Join(sentences, " ")
}

// splitSentences cuts text at sentence boundaries, stopping once limit sentences are found.
// The whitespace run after a boundary is dropped.
func splitSentences(text string, limit int) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isTerminator(r) || i >= len(text) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(next) {
			continue
		}
		out = append(out, text[start:i])
		if len(out) == limit {
			return out
		}
		for i < len(text) {
			ws, n := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(ws) {
				break
			}
			i += n
		}
		start = i
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
