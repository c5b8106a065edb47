package transform

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractLinks returns the href of every anchor in markup, in document order, one per line.
//
// Only the tokenizer is used: unclosed or invalid tags are skipped rather than repaired,
// and href attributes on other elements are ignored. Every href on an anchor counts, so an
// empty or bare href yields an empty line and a repeated href yields one line per value.
func ExtractLinks(markup string) string {
	if markup == "" {
		return ""
	}
	var links []string
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a reader error; either way nothing more can be read.
			return strings.Join(links, "\n")
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr || string(name) != "a" {
				continue
			}
			links = appendHrefs(links, z)
		}
	}
}

func appendHrefs(links []string, z *html.Tokenizer) []string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			links = append(links, string(val))
		}
		if !more {
			return links
		}
	}
}
