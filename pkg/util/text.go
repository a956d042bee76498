package util

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower applies full Unicode lower-case mapping, including special casing
// and final sigma. A Caser is stateful, so one is built per call.
func Lower(s string) string {
	if isASCIILower(s) {
		return s
	}
	return cases.Lower(language.Und).String(s)
}

// IsWordRune reports whether r belongs to a word: letters, numbers and underscore.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// RuneLen counts code points rather than bytes.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

func isASCIILower(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf || ('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
