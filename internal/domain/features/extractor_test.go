package features

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/dupcheck/internal/domain/fuzzy"
)

func newTestExtractor() *Extractor {
	return NewExtractor(EnglishStopWords(), fuzzy.NewMatcher(nil))
}

func TestExtractWidthAndOrder(t *testing.T) {
	v := newTestExtractor().Extract("what is go", "what is rust")
	require.Len(t, v.Slice(), Width)
	require.Equal(t, 22, Width)
	require.Len(t, v.Simple(), SimpleCount)
	require.Len(t, v.Token(), TokenCount)
	require.Len(t, v.Length(), LengthCount)
	require.Len(t, v.Fuzzy(), FuzzyCount)
	require.Equal(t, "q1_len", Names[0])
	require.Equal(t, "token_set_ratio", Names[Width-1])
}

func TestExtractQuestionPair(t *testing.T) {
	q1 := "what is the capital of france"
	q2 := "what is the capital city of france"
	v := newTestExtractor().Extract(q1, q2)

	require.Equal(t, []float64{29, 34, 6, 7, 6, 13, 0.46}, v.Simple())

	token := v.Token()
	require.InDelta(t, 1.0, token[0], 1e-3)
	require.InDelta(t, 2.0/3.0, token[1], 1e-3)
	require.InDelta(t, 1.0, token[2], 1e-3)
	require.InDelta(t, 1.0, token[3], 1e-3)
	require.InDelta(t, 1.0, token[4], 1e-3)
	require.InDelta(t, 6.0/7.0, token[5], 1e-3)
	require.Equal(t, 1.0, token[6])
	require.Equal(t, 1.0, token[7])

	length := v.Length()
	require.Equal(t, 1.0, length[0])
	require.Equal(t, 6.5, length[1])
	require.InDelta(t, 20.0/30.0, length[2], 1e-9)

	for _, score := range v.Fuzzy() {
		require.Greater(t, score, 80.0)
	}
}

func TestExtractSelfSimilarity(t *testing.T) {
	e := newTestExtractor()
	for _, q := range []string{"what is the capit of franc", "how do i learn go", "python"} {
		v := e.Extract(q, q)
		token := v.Token()
		for _, idx := range []int{4, 5} {
			require.InDeltaf(t, 1.0, token[idx], 1e-3, "token[%d] for %q", idx, q)
		}
		require.Equal(t, 1.0, token[6])
		require.Equal(t, 1.0, token[7])
		require.Equal(t, []float64{100, 100, 100, 100}, v.Fuzzy())
	}

	token := e.Extract("capit franc", "capit franc").Token()
	require.InDelta(t, 1.0, token[0], 1e-3)
	require.InDelta(t, 1.0, token[1], 1e-3)
}

func TestExtractEmpty(t *testing.T) {
	v := newTestExtractor().Extract("", "")
	require.Equal(t, []float64{0, 0, 1, 1, 0, 0, 0}, v.Simple())
	require.Equal(t, make([]float64, TokenCount), v.Token())
	require.Equal(t, make([]float64, LengthCount), v.Length())
	require.Equal(t, []float64{0, 100, 100, 0}, v.Fuzzy())
}

func TestExtractOneSideEmpty(t *testing.T) {
	v := newTestExtractor().Extract("", "how to cook rice")
	require.Equal(t, make([]float64, TokenCount), v.Token())
	require.Equal(t, make([]float64, LengthCount), v.Length())
	// The blank side still contributes the empty word to the total.
	require.Equal(t, 0.0, v.Simple()[4])
	require.Equal(t, 5.0, v.Simple()[5])
	require.Equal(t, 0.0, v.Simple()[6])
}

func TestExtractEmptyWordCounts(t *testing.T) {
	e := newTestExtractor()

	v := e.Extract("how  to cook", "how to cook")
	require.Equal(t, []float64{12, 11, 4, 3, 3, 7, 0.43}, v.Simple())

	v = e.Extract("a  b", "c  d")
	require.Equal(t, 1.0, v.Simple()[4])
	require.Equal(t, 6.0, v.Simple()[5])

	v = e.Extract(" ", "")
	require.Equal(t, []float64{1, 0, 2, 1, 0, 0, 0}, v.Simple())
}

func TestExtractSymmetry(t *testing.T) {
	e := newTestExtractor()
	pairs := [][2]string{
		{"what is the capital of france", "what is the capital city of france"},
		{"how do i learn go", "what is the best way to learn go"},
		{"", "lonely question"},
	}
	for _, p := range pairs {
		a := e.Extract(p[0], p[1])
		b := e.Extract(p[1], p[0])
		require.Equal(t, a[4], b[4], "common words")
		require.Equal(t, a[5], b[5], "total words")
		require.Equal(t, a[6], b[6], "word share")
		require.Equal(t, a.Token(), b.Token())
		require.Equal(t, a[lengthOffset], b[lengthOffset])
		require.Equal(t, a[lengthOffset+1], b[lengthOffset+1])
	}
	a := e.Extract(pairs[0][0], pairs[0][1])
	b := e.Extract(pairs[0][1], pairs[0][0])
	require.Equal(t, a.Fuzzy(), b.Fuzzy())
}

func TestSimpleFeaturesCountLiteralSpaces(t *testing.T) {
	v := newTestExtractor().Extract("a  b", "A b")
	simple := v.Simple()
	require.Equal(t, 3.0, simple[2])
	require.Equal(t, 2.0, simple[3])
	require.Equal(t, 2.0, simple[4])
	require.Equal(t, 4.0, simple[5])
}

func TestLongestCommonSubstring(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"abcdef", "zcdemn", 3},
		{"abc", "xyz", 0},
		{"", "abc", 0},
		{"héllo", "jéllo", 4},
		{"same", "same", 4},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, LongestCommonSubstring(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
		require.Equal(t, tc.want, LongestCommonSubstring(tc.b, tc.a), "%q vs %q", tc.b, tc.a)
	}
}

func TestRound2(t *testing.T) {
	require.Equal(t, 0.46, round2(6.0/13.0001))
	require.Equal(t, 0.0, round2(0))
	require.Equal(t, 0.5, round2(1.0/2.0001))
}
