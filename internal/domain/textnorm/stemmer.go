package textnorm

import (
	"fmt"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/kljensen/snowball/english"

	"github.com/yanqian/dupcheck/pkg/util"
)

// Stemmer names accepted by NewStemmer.
const (
	StemmerPorter        = "porter"
	StemmerPorterClassic = "porter-classic"
	StemmerSnowball      = "snowball"
)

// Stemmer reduces a single lower-case token to its stem.
type Stemmer interface {
	Stem(token string) string
}

// ClassicPorterStemmer applies the 1980 Porter rules without extensions.
type ClassicPorterStemmer struct{}

// Stem implements Stemmer.
func (ClassicPorterStemmer) Stem(token string) string {
	if util.RuneLen(token) <= 2 {
		return token
	}
	return porterstemmer.StemString(token)
}

// SnowballStemmer applies the Porter2 English rules.
type SnowballStemmer struct{}

// Stem implements Stemmer.
func (SnowballStemmer) Stem(token string) string {
	if util.RuneLen(token) <= 2 {
		return token
	}
	return english.Stem(token, true)
}

// NewStemmer resolves a configured stemmer name.
func NewStemmer(name string) (Stemmer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StemmerPorter:
		return PorterStemmer{}, nil
	case StemmerPorterClassic:
		return ClassicPorterStemmer{}, nil
	case StemmerSnowball, "porter2":
		return SnowballStemmer{}, nil
	default:
		return nil, fmt.Errorf("unknown stemmer %q", name)
	}
}
