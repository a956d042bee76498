package features

// Group sizes, in vector order.
const (
	SimpleCount = 7
	TokenCount  = 8
	LengthCount = 3
	FuzzyCount  = 4

	Width = SimpleCount + TokenCount + LengthCount + FuzzyCount
)

const (
	simpleOffset = 0
	tokenOffset  = simpleOffset + SimpleCount
	lengthOffset = tokenOffset + TokenCount
	fuzzyOffset  = lengthOffset + LengthCount
)

// SafeDiv is added to every ratio denominator so empty inputs never divide by zero.
const SafeDiv = 0.0001

// Names labels each vector position, used for CSV headers and debugging output.
var Names = [Width]string{
	"q1_len", "q2_len", "q1_num_words", "q2_num_words", "word_common", "word_total", "word_share",
	"cwc_min", "cwc_max", "csc_min", "csc_max", "ctc_min", "ctc_max", "last_word_eq", "first_word_eq",
	"abs_len_diff", "mean_len", "longest_substr_ratio",
	"fuzz_ratio", "fuzz_partial_ratio", "token_sort_ratio", "token_set_ratio",
}

// Vector is the fixed-width, ordered feature encoding of a question pair.
type Vector [Width]float64

// Slice copies the vector into a fresh slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Width)
	copy(out, v[:])
	return out
}

// Simple returns the count and word-share group.
func (v Vector) Simple() []float64 { return v.Slice()[simpleOffset:tokenOffset] }

// Token returns the token overlap group.
func (v Vector) Token() []float64 { return v.Slice()[tokenOffset:lengthOffset] }

// Length returns the length similarity group.
func (v Vector) Length() []float64 { return v.Slice()[lengthOffset:fuzzyOffset] }

// Fuzzy returns the fuzzy similarity group.
func (v Vector) Fuzzy() []float64 { return v.Slice()[fuzzyOffset:] }
