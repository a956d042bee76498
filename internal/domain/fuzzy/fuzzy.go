// Package fuzzy scores string similarity on a 0-100 scale using
// Ratcliff-Obershelp sequence matching and its token-level variants.
package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/pmezard/go-difflib/difflib"
)

// Backend names accepted by NewScorer.
const (
	BackendDifflib     = "difflib"
	BackendLevenshtein = "levenshtein"
)

// Scorer exposes the four similarity variants used as features.
type Scorer interface {
	QRatio(a, b string) int
	PartialRatio(a, b string) int
	TokenSortRatio(a, b string) int
	TokenSetRatio(a, b string) int
}

// RatioFunc returns the similarity of two rune sequences in [0, 1].
type RatioFunc func(a, b []string) float64

// SequenceRatio is the sequence-matcher ratio 2*M/T.
func SequenceRatio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}

// LevenshteinRatio is one minus the edit distance over the longer length.
func LevenshteinRatio(a, b []string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(strings.Join(a, ""), strings.Join(b, ""))
	return 1 - float64(dist)/float64(longest)
}

// Matcher implements Scorer on top of a pluggable pairwise ratio.
// Partial-ratio window alignment always uses sequence-matcher blocks.
type Matcher struct {
	ratio RatioFunc
}

// NewMatcher builds a Matcher. A nil ratio selects SequenceRatio.
func NewMatcher(ratio RatioFunc) *Matcher {
	if ratio == nil {
		ratio = SequenceRatio
	}
	return &Matcher{ratio: ratio}
}

// NewScorer resolves a configured backend name.
func NewScorer(backend string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendDifflib:
		return NewMatcher(SequenceRatio), nil
	case BackendLevenshtein:
		return NewMatcher(LevenshteinRatio), nil
	default:
		return nil, fmt.Errorf("unknown fuzzy backend %q", backend)
	}
}

// Ratio compares the raw strings.
func (m *Matcher) Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return intr(100 * m.ratio(runes(a), runes(b)))
}

// QRatio compares the fully processed strings and scores 0 when either side
// processes down to nothing.
func (m *Matcher) QRatio(a, b string) int {
	p1 := FullProcess(a, true)
	p2 := FullProcess(b, true)
	if p1 == "" || p2 == "" {
		return 0
	}
	return m.Ratio(p1, p2)
}

// PartialRatio scores the best window of the longer string against the shorter one.
func (m *Matcher) PartialRatio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := runes(a), runes(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0.0
	for _, block := range difflib.NewMatcher(shorter, longer).GetMatchingBlocks() {
		start := block.B - block.A
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}
		r := m.ratio(shorter, longer[start:end])
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return intr(100 * best)
}

// TokenSortRatio compares the strings after sorting their processed tokens.
func (m *Matcher) TokenSortRatio(a, b string) int {
	return m.Ratio(processAndSort(a), processAndSort(b))
}

// TokenSetRatio compares the shared tokens against each side's remainder.
func (m *Matcher) TokenSetRatio(a, b string) int {
	p1 := FullProcess(a, true)
	p2 := FullProcess(b, true)
	if p1 == "" || p2 == "" {
		return 0
	}

	tokens1 := tokenSet(p1)
	tokens2 := tokenSet(p2)
	var intersection, diff1to2, diff2to1 []string
	for token := range tokens1 {
		if _, ok := tokens2[token]; ok {
			intersection = append(intersection, token)
		} else {
			diff1to2 = append(diff1to2, token)
		}
	}
	for token := range tokens2 {
		if _, ok := tokens1[token]; !ok {
			diff2to1 = append(diff2to1, token)
		}
	}

	sortedSect := sortedJoin(intersection)
	combined1to2 := strings.TrimSpace(sortedSect + " " + sortedJoin(diff1to2))
	combined2to1 := strings.TrimSpace(sortedSect + " " + sortedJoin(diff2to1))
	sortedSect = strings.TrimSpace(sortedSect)

	best := m.Ratio(sortedSect, combined1to2)
	if r := m.Ratio(sortedSect, combined2to1); r > best {
		best = r
	}
	if r := m.Ratio(combined1to2, combined2to1); r > best {
		best = r
	}
	return best
}

func processAndSort(s string) string {
	tokens := strings.Fields(FullProcess(s, true))
	return strings.TrimSpace(sortedJoin(tokens))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func sortedJoin(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// runes splits s into one element per code point, the unit the matcher compares.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// intr rounds half to even, as scores are reported as integers.
func intr(v float64) int {
	return int(math.RoundToEven(v))
}

var _ Scorer = (*Matcher)(nil)
