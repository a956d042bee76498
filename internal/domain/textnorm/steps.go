package textnorm

import (
	"regexp"
	"strings"

	"github.com/yanqian/dupcheck/pkg/util"
)

type replacement struct {
	old string
	new string
}

var symbolReplacements = []replacement{
	{"%", " percent"},
	{"$", " dollar "},
	{"₹", " rupee "},
	{"€", " euro "},
	{"@", " at "},
	{"[math]", ""},
}

var groupedNumberReplacements = []replacement{
	{",000,000,000 ", "b "},
	{",000,000 ", "m "},
	{",000 ", "k "},
}

type numberSuffixRule struct {
	pattern *regexp.Regexp
	repl    string
}

// Greedy digit runs backtrack so the zeros consumed are always the trailing ones.
var numberSuffixRules = []numberSuffixRule{
	{regexp.MustCompile(`([0-9]+)000000000`), "${1}b"},
	{regexp.MustCompile(`([0-9]+)000000`), "${1}m"},
	{regexp.MustCompile(`([0-9]+)000`), "${1}k"},
}

// LowerTrim lower-cases the text and strips surrounding whitespace.
func LowerTrim(s string) string {
	return strings.TrimSpace(util.Lower(s))
}

// SubstituteSymbols spells out currency and math symbols.
func SubstituteSymbols(s string) string {
	return applyReplacements(s, symbolReplacements)
}

// CompactNumbers abbreviates thousands, millions and billions, first in their
// comma-grouped form and then as bare trailing zeros.
func CompactNumbers(s string) string {
	s = applyReplacements(s, groupedNumberReplacements)
	for _, rule := range numberSuffixRules {
		s = rule.pattern.ReplaceAllString(s, rule.repl)
	}
	return s
}

// ExpandContractions replaces whole tokens found in table and re-joins with single spaces.
func ExpandContractions(s string, table map[string]string) string {
	tokens := strings.Fields(s)
	for i, token := range tokens {
		if expanded, ok := table[token]; ok {
			tokens[i] = expanded
		}
	}
	return strings.Join(tokens, " ")
}

// RemovePunctuation turns every non-word rune, whitespace included, into a space.
func RemovePunctuation(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if util.IsWordRune(r) {
			return r
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}

// StemTokens stems each whitespace separated token independently.
func StemTokens(s string, stemmer Stemmer) string {
	tokens := strings.Fields(s)
	for i, token := range tokens {
		tokens[i] = stemmer.Stem(token)
	}
	return strings.Join(tokens, " ")
}

func applyReplacements(s string, rules []replacement) string {
	for _, r := range rules {
		s = strings.ReplaceAll(s, r.old, r.new)
	}
	return s
}
