package features

import (
	"strconv"
	"strings"

	"github.com/yanqian/dupcheck/internal/domain/fuzzy"
	"github.com/yanqian/dupcheck/pkg/util"
)

// Extractor derives the feature vector for two normalized questions. It is
// immutable after construction and safe for concurrent use.
type Extractor struct {
	stopWords StopWords
	scorer    fuzzy.Scorer
}

// NewExtractor wires the static stop-word set and the fuzzy scorer.
// A zero StopWords selects the English list and a nil scorer the sequence matcher.
func NewExtractor(stopWords StopWords, scorer fuzzy.Scorer) *Extractor {
	if stopWords.set == nil {
		stopWords = EnglishStopWords()
	}
	if scorer == nil {
		scorer = fuzzy.NewMatcher(fuzzy.SequenceRatio)
	}
	return &Extractor{stopWords: stopWords, scorer: scorer}
}

// Extract computes every group and concatenates them in order.
func (e *Extractor) Extract(q1, q2 string) Vector {
	var v Vector
	simple := simpleFeatures(q1, q2)
	token := e.tokenFeatures(q1, q2)
	length := lengthFeatures(q1, q2)
	fz := e.fuzzyFeatures(q1, q2)
	copy(v[simpleOffset:], simple[:])
	copy(v[tokenOffset:], token[:])
	copy(v[lengthOffset:], length[:])
	copy(v[fuzzyOffset:], fz[:])
	return v
}

func simpleFeatures(q1, q2 string) [SimpleCount]float64 {
	w1 := spaceWordSet(q1)
	w2 := spaceWordSet(q2)
	if onlyEmptyWord(w1) && onlyEmptyWord(w2) {
		// Two blank questions share no words; the lone empty token would give a 0.5 share.
		w1, w2 = nil, nil
	}
	common := intersectionSize(w1, w2)
	total := len(w1) + len(w2)

	return [SimpleCount]float64{
		float64(util.RuneLen(q1)),
		float64(util.RuneLen(q2)),
		float64(len(strings.Split(q1, " "))),
		float64(len(strings.Split(q2, " "))),
		float64(common),
		float64(total),
		round2(float64(common) / (float64(total) + SafeDiv)),
	}
}

func (e *Extractor) tokenFeatures(q1, q2 string) [TokenCount]float64 {
	var out [TokenCount]float64
	t1 := strings.Fields(q1)
	t2 := strings.Fields(q2)
	if len(t1) == 0 || len(t2) == 0 {
		return out
	}

	words1, stops1 := e.partition(t1)
	words2, stops2 := e.partition(t2)
	all1, all2 := toSet(t1), toSet(t2)

	commonWords := float64(intersectionSize(words1, words2))
	commonStops := float64(intersectionSize(stops1, stops2))
	commonTokens := float64(intersectionSize(all1, all2))

	out[0] = commonWords / (float64(min(len(words1), len(words2))) + SafeDiv)
	out[1] = commonWords / (float64(max(len(words1), len(words2))) + SafeDiv)
	out[2] = commonStops / (float64(min(len(stops1), len(stops2))) + SafeDiv)
	out[3] = commonStops / (float64(max(len(stops1), len(stops2))) + SafeDiv)
	out[4] = commonTokens / (float64(min(len(t1), len(t2))) + SafeDiv)
	out[5] = commonTokens / (float64(max(len(t1), len(t2))) + SafeDiv)
	out[6] = boolFloat(t1[len(t1)-1] == t2[len(t2)-1])
	out[7] = boolFloat(t1[0] == t2[0])
	return out
}

func lengthFeatures(q1, q2 string) [LengthCount]float64 {
	var out [LengthCount]float64
	n1 := len(strings.Fields(q1))
	n2 := len(strings.Fields(q2))
	if n1 == 0 || n2 == 0 {
		return out
	}

	diff := n1 - n2
	if diff < 0 {
		diff = -diff
	}
	out[0] = float64(diff)
	out[1] = float64(n1+n2) / 2
	shortest := min(util.RuneLen(q1), util.RuneLen(q2))
	out[2] = float64(LongestCommonSubstring(q1, q2)) / float64(shortest+1)
	return out
}

func (e *Extractor) fuzzyFeatures(q1, q2 string) [FuzzyCount]float64 {
	return [FuzzyCount]float64{
		float64(e.scorer.QRatio(q1, q2)),
		float64(e.scorer.PartialRatio(q1, q2)),
		float64(e.scorer.TokenSortRatio(q1, q2)),
		float64(e.scorer.TokenSetRatio(q1, q2)),
	}
}

func (e *Extractor) partition(tokens []string) (words, stops map[string]struct{}) {
	words = make(map[string]struct{}, len(tokens))
	stops = make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if e.stopWords.Contains(token) {
			stops[token] = struct{}{}
		} else {
			words[token] = struct{}{}
		}
	}
	return words, stops
}

// spaceWordSet splits on single spaces, lower-cases and trims each word.
// An empty or double-spaced string contributes the empty word.
func spaceWordSet(q string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Split(q, " ") {
		set[strings.TrimSpace(util.Lower(w))] = struct{}{}
	}
	return set
}

func onlyEmptyWord(set map[string]struct{}) bool {
	for w := range set {
		if w != "" {
			return false
		}
	}
	return true
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// round2 rounds to two decimals using the correctly rounded decimal form.
func round2(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
