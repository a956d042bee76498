package textnorm

import (
	"strings"
	"unicode/utf8"
)

// porterIrregular holds forms resolved by lookup before any suffix rule runs.
var porterIrregular = map[string]string{
	"skies":    "sky",
	"sky":      "sky",
	"dying":    "die",
	"lying":    "lie",
	"tying":    "tie",
	"news":     "news",
	"innings":  "inning",
	"inning":   "inning",
	"outings":  "outing",
	"outing":   "outing",
	"cannings": "canning",
	"canning":  "canning",
	"howe":     "howe",
	"proceed":  "proceed",
	"exceed":   "exceed",
	"succeed":  "succeed",
}

// PorterStemmer applies the Porter algorithm with the NLTK extensions: the
// irregular-form lookup, the relaxed y->i rule and the extra step 2 suffixes.
// Tokens of two runes or fewer are returned unchanged.
type PorterStemmer struct{}

// Stem implements Stemmer.
func (PorterStemmer) Stem(token string) string {
	if base, ok := porterIrregular[token]; ok {
		return base
	}
	if utf8.RuneCountInString(token) <= 2 {
		return token
	}
	w := porterStep1a(token)
	w = porterStep1b(w)
	w = porterStep1c(w)
	w = porterStep2(w)
	w = porterStep3(w)
	w = porterStep4(w)
	w = porterStep5a(w)
	return porterStep5b(w)
}

type suffixRule struct {
	suffix      string
	replacement string
	cond        func(stem string) bool
}

// applySuffixRules rewrites the first matching suffix. A match whose
// condition fails stops the search and leaves the word alone.
func applySuffixRules(word string, rules []suffixRule) string {
	for _, rule := range rules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		stem := word[:len(word)-len(rule.suffix)]
		if rule.cond != nil && !rule.cond(stem) {
			return word
		}
		return stem + rule.replacement
	}
	return word
}

// consonantAt treats y as a consonant at the start or after a vowel.
func consonantAt(w []rune, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !consonantAt(w, i-1)
	}
	return true
}

// porterMeasure counts vowel-consonant sequences, the m in [C](VC){m}[V].
func porterMeasure(stem string) int {
	w := []rune(stem)
	m := 0
	prevVowel := false
	for i := range w {
		c := consonantAt(w, i)
		if c && prevVowel {
			m++
		}
		prevVowel = !c
	}
	return m
}

func measureAbove(n int) func(string) bool {
	return func(stem string) bool { return porterMeasure(stem) > n }
}

func hasVowel(stem string) bool {
	w := []rune(stem)
	for i := range w {
		if !consonantAt(w, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(word string) bool {
	w := []rune(word)
	n := len(w)
	return n >= 2 && w[n-1] == w[n-2] && consonantAt(w, n-1)
}

// endsCVC also accepts a two-letter vowel-consonant word.
func endsCVC(word string) bool {
	w := []rune(word)
	n := len(w)
	if n >= 3 && consonantAt(w, n-3) && !consonantAt(w, n-2) && consonantAt(w, n-1) {
		switch w[n-1] {
		case 'w', 'x', 'y':
			return false
		}
		return true
	}
	return n == 2 && !consonantAt(w, 0) && consonantAt(w, 1)
}

func porterStep1a(word string) string {
	if strings.HasSuffix(word, "ies") && utf8.RuneCountInString(word) == 4 {
		return strings.TrimSuffix(word, "s")
	}
	return applySuffixRules(word, []suffixRule{
		{suffix: "sses", replacement: "ss"},
		{suffix: "ies", replacement: "i"},
		{suffix: "ss", replacement: "ss"},
		{suffix: "s", replacement: ""},
	})
}

func porterStep1b(word string) string {
	if strings.HasSuffix(word, "ied") {
		if utf8.RuneCountInString(word) == 4 {
			return strings.TrimSuffix(word, "d")
		}
		return strings.TrimSuffix(word, "ed")
	}
	if strings.HasSuffix(word, "eed") {
		stem := strings.TrimSuffix(word, "eed")
		if porterMeasure(stem) > 0 {
			return stem + "ee"
		}
		return word
	}

	var stem string
	switch {
	case strings.HasSuffix(word, "ed"):
		stem = strings.TrimSuffix(word, "ed")
	case strings.HasSuffix(word, "ing"):
		stem = strings.TrimSuffix(word, "ing")
	default:
		return word
	}
	if !hasVowel(stem) {
		return word
	}

	switch {
	case strings.HasSuffix(stem, "at"), strings.HasSuffix(stem, "bl"), strings.HasSuffix(stem, "iz"):
		return stem + "e"
	case endsDoubleConsonant(stem):
		last, size := utf8.DecodeLastRuneInString(stem)
		switch last {
		case 'l', 's', 'z':
			return stem
		}
		return stem[:len(stem)-size]
	case porterMeasure(stem) == 1 && endsCVC(stem):
		return stem + "e"
	}
	return stem
}

// porterStep1c turns a final y into i after any consonant, not only after a
// stem containing a vowel.
func porterStep1c(word string) string {
	if !strings.HasSuffix(word, "y") {
		return word
	}
	stem := []rune(strings.TrimSuffix(word, "y"))
	if len(stem) > 1 && consonantAt(stem, len(stem)-1) {
		return string(stem) + "i"
	}
	return word
}

var step2Rules = []suffixRule{
	{"ational", "ate", measureAbove(0)},
	{"tional", "tion", measureAbove(0)},
	{"enci", "ence", measureAbove(0)},
	{"anci", "ance", measureAbove(0)},
	{"izer", "ize", measureAbove(0)},
	{"bli", "ble", measureAbove(0)},
	{"alli", "al", measureAbove(0)},
	{"entli", "ent", measureAbove(0)},
	{"eli", "e", measureAbove(0)},
	{"ousli", "ous", measureAbove(0)},
	{"ization", "ize", measureAbove(0)},
	{"ation", "ate", measureAbove(0)},
	{"ator", "ate", measureAbove(0)},
	{"alism", "al", measureAbove(0)},
	{"iveness", "ive", measureAbove(0)},
	{"fulness", "ful", measureAbove(0)},
	{"ousness", "ous", measureAbove(0)},
	{"aliti", "al", measureAbove(0)},
	{"iviti", "ive", measureAbove(0)},
	{"biliti", "ble", measureAbove(0)},
	{"fulli", "ful", measureAbove(0)},
}

func porterStep2(word string) string {
	if strings.HasSuffix(word, "alli") && porterMeasure(strings.TrimSuffix(word, "alli")) > 0 {
		return porterStep2(strings.TrimSuffix(word, "alli") + "al")
	}
	// logi -> log is gated on the measure of the stem plus its l.
	rules := append(step2Rules[:len(step2Rules):len(step2Rules)], suffixRule{
		suffix:      "logi",
		replacement: "log",
		cond:        func(string) bool { return porterMeasure(word[:len(word)-3]) > 0 },
	})
	return applySuffixRules(word, rules)
}

var step3Rules = []suffixRule{
	{"icate", "ic", measureAbove(0)},
	{"ative", "", measureAbove(0)},
	{"alize", "al", measureAbove(0)},
	{"iciti", "ic", measureAbove(0)},
	{"ical", "ic", measureAbove(0)},
	{"ful", "", measureAbove(0)},
	{"ness", "", measureAbove(0)},
}

func porterStep3(word string) string {
	return applySuffixRules(word, step3Rules)
}

var step4Rules = []suffixRule{
	{"al", "", measureAbove(1)},
	{"ance", "", measureAbove(1)},
	{"ence", "", measureAbove(1)},
	{"er", "", measureAbove(1)},
	{"ic", "", measureAbove(1)},
	{"able", "", measureAbove(1)},
	{"ible", "", measureAbove(1)},
	{"ant", "", measureAbove(1)},
	{"ement", "", measureAbove(1)},
	{"ment", "", measureAbove(1)},
	{"ent", "", measureAbove(1)},
	{"ion", "", func(stem string) bool {
		return porterMeasure(stem) > 1 && (strings.HasSuffix(stem, "s") || strings.HasSuffix(stem, "t"))
	}},
	{"ou", "", measureAbove(1)},
	{"ism", "", measureAbove(1)},
	{"ate", "", measureAbove(1)},
	{"iti", "", measureAbove(1)},
	{"ous", "", measureAbove(1)},
	{"ive", "", measureAbove(1)},
	{"ize", "", measureAbove(1)},
}

func porterStep4(word string) string {
	return applySuffixRules(word, step4Rules)
}

func porterStep5a(word string) string {
	if !strings.HasSuffix(word, "e") {
		return word
	}
	stem := strings.TrimSuffix(word, "e")
	m := porterMeasure(stem)
	if m > 1 || (m == 1 && !endsCVC(stem)) {
		return stem
	}
	return word
}

func porterStep5b(word string) string {
	if strings.HasSuffix(word, "ll") && porterMeasure(word[:len(word)-1]) > 1 {
		return word[:len(word)-1]
	}
	return word
}
