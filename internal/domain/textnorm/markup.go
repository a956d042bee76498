package textnorm

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup keeps only the text content of s. Entities are decoded, tags and
// comments are dropped, and script/style bodies are discarded. Text without
// markup passes through untouched.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var (
		b       strings.Builder
		skipped int
	)
	b.Grow(len(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// An unterminated trailing tag is kept as text.
			if errors.Is(z.Err(), io.EOF) && skipped == 0 {
				b.Write(z.Raw())
			}
			return b.String()
		case html.TextToken:
			if skipped == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if isRawTextTag(z) {
				skipped++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skipped > 0 {
				skipped--
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	default:
		return false
	}
}
