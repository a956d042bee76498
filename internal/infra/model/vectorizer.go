package model

import (
	"regexp"

	"github.com/yanqian/dupcheck/pkg/util"
)

// Tokens are maximal runs of two or more word runes.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// CountVectorizer maps text to term counts over a fixed vocabulary.
type CountVectorizer struct {
	vocabulary map[string]int
}

// NewCountVectorizer copies the vocabulary so callers cannot mutate it later.
func NewCountVectorizer(vocabulary map[string]int) *CountVectorizer {
	vocab := make(map[string]int, len(vocabulary))
	for term, column := range vocabulary {
		vocab[term] = column
	}
	return &CountVectorizer{vocabulary: vocab}
}

// Width is the vocabulary size.
func (v *CountVectorizer) Width() int {
	return len(v.vocabulary)
}

// Tokenize lower-cases text and splits it with the vectorizer's token pattern.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(util.Lower(text), -1)
}

// Transform counts how many times every vocabulary term appears in text.
// Unknown terms are ignored.
func (v *CountVectorizer) Transform(text string) []float64 {
	counts := make([]float64, len(v.vocabulary))
	for _, token := range Tokenize(text) {
		if column, ok := v.vocabulary[token]; ok {
			counts[column]++
		}
	}
	return counts
}
