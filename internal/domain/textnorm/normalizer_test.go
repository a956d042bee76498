package textnorm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/dupcheck/pkg/util"
)

func TestNormalize(t *testing.T) {
	n := New(Config{})
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "empty", in: "", out: ""},
		{name: "whitespace only", in: " \t\n ", out: ""},
		{name: "punctuation only", in: "?!?", out: ""},
		{name: "contraction", in: "Don't", out: "do not"},
		{name: "markup", in: "<b>Hello</b> World!", out: "hello world"},
		{name: "plurals stemmed", in: "Cats and dollars", out: "cat and dollar"},
		{name: "numbers compacted before stemming", in: "I have 5000 dollars", out: "i have 5k dollar"},
		{name: "currency spelled out", in: "Is $100 enough?", out: "is dollar 100 enough"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.out, n.Normalize(tc.in))
		})
	}
}

func TestNormalizeOutputInvariant(t *testing.T) {
	n := New(Config{})
	inputs := []string{
		"What is the <i>best</i> way to learn C++ & Go?",
		"Why're prices up 20% in 2,000 stores?!",
		"<div><p>Nested &lt;tags&gt;</p></div>",
		"email me @ foo@example.com",
		"[math]x^2 + y^2 = z^2[/math]",
		"  multiple   spaces\tand\nnewlines ",
		"£ ¥ ₿ symbols",
	}
	for _, in := range inputs {
		out := n.Normalize(in)
		require.NotContains(t, out, "<")
		require.NotContains(t, out, ">")
		require.NotContains(t, out, "  ")
		for _, r := range out {
			require.Truef(t, r == ' ' || util.IsWordRune(r), "unexpected rune %q in %q", r, out)
		}
	}
}

func TestNormalizeUsesInjectedTables(t *testing.T) {
	n := New(Config{
		Contractions: map[string]string{"gonna": "going to"},
		Stemmer:      stemFunc(func(s string) string { return s }),
	})
	require.Equal(t, "going to don t", n.Normalize("Gonna don't"))
}

func TestTraceMatchesNormalize(t *testing.T) {
	n := New(Config{})
	in := "It's <em>50%</em> off!"
	trace := n.Trace(in)
	require.Len(t, trace, 7)
	require.Equal(t, n.StepNames()[0], trace[0].Step)
	require.Equal(t, "stem", trace[len(trace)-1].Step)
	require.Equal(t, n.Normalize(in), trace[len(trace)-1].Output)
	require.Equal(t, "it's <em>50%</em> off!", trace[0].Output)
	require.Equal(t, "it's <em>50 percent</em> off!", trace[1].Output)
	require.Equal(t, "it is <em>50 percent</em> off!", trace[3].Output)
	require.Equal(t, "it is 50 percent off!", trace[4].Output)
	require.Equal(t, "it is 50 percent off", trace[5].Output)
}

func TestStemmers(t *testing.T) {
	porter, err := NewStemmer("porter")
	require.NoError(t, err)
	require.Equal(t, "run", porter.Stem("running"))
	require.Equal(t, "capit", porter.Stem("capital"))
	require.Equal(t, "is", porter.Stem("is"))

	classic, err := NewStemmer("porter-classic")
	require.NoError(t, err)
	require.IsType(t, ClassicPorterStemmer{}, classic)
	require.Equal(t, "run", classic.Stem("running"))
	require.Equal(t, "enjoi", classic.Stem("enjoy"))

	snow, err := NewStemmer("snowball")
	require.NoError(t, err)
	require.Equal(t, "run", snow.Stem("running"))
	require.Equal(t, "as", snow.Stem("as"))

	def, err := NewStemmer("")
	require.NoError(t, err)
	require.IsType(t, PorterStemmer{}, def)

	_, err = NewStemmer("lancaster")
	require.Error(t, err)
}

func TestPorterStemmerExtensions(t *testing.T) {
	cases := map[string]string{
		// y -> i after any consonant
		"why":   "whi",
		"try":   "tri",
		"cry":   "cri",
		"fly":   "fli",
		"happy": "happi",
		"enjoy": "enjoy",
		// irregular forms
		"dying":   "die",
		"lying":   "lie",
		"skies":   "sky",
		"sky":     "sky",
		"news":    "news",
		"innings": "inning",
		"succeed": "succeed",
		// ies/ied on four letters
		"dies":  "die",
		"died":  "die",
		"spied": "spi",
		// alli and fulli
		"hopefully": "hope",
		"radically": "radic",
		// regular rules
		"flying":         "fli",
		"archaeology":    "archaeolog",
		"generalization": "gener",
		"meeting":        "meet",
		"friends":        "friend",
		"questions":      "question",
		"blue":           "blue",
	}
	var s PorterStemmer
	for in, want := range cases {
		require.Equalf(t, want, s.Stem(in), "stem(%q)", in)
	}
}

func TestNormalizeWithDefaultStemmer(t *testing.T) {
	n := New(Config{})
	cases := map[string]string{
		"Why do cats cry?":              "whi do cat cri",
		"Why is the sky blue?":          "whi is the sky blue",
		"How do I try to enjoy flying?": "how do i tri to enjoy fli",
		"dying lying skies":             "die lie sky",
	}
	for in, want := range cases {
		require.Equal(t, want, n.Normalize(in))
	}
}
