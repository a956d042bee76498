package fuzzy

import (
	"strings"

	"github.com/yanqian/dupcheck/pkg/util"
)

// FullProcess replaces non-word runes with spaces, lower-cases and trims.
// With forceASCII the Latin-1 supplement range (128-255) is dropped first.
func FullProcess(s string, forceASCII bool) string {
	if forceASCII {
		s = stripLatin1(s)
	}
	mapped := strings.Map(func(r rune) rune {
		if util.IsWordRune(r) {
			return r
		}
		return ' '
	}, s)
	return strings.TrimSpace(util.Lower(mapped))
}

func stripLatin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 128 && r <= 255 {
			return -1
		}
		return r
	}, s)
}
