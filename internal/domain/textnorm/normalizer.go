package textnorm

// Step is one pure string transformation. Each step consumes the previous
// step's output, so the order of Steps is part of the contract.
type Step struct {
	Name  string
	Apply func(string) string
}

// StepResult captures the text after a named step ran.
type StepResult struct {
	Step   string `json:"step"`
	Output string `json:"output"`
}

// Config carries the static tables the normalizer depends on.
type Config struct {
	// Contractions maps whole lower-case tokens to their expansion. Nil selects DefaultContractions.
	Contractions map[string]string
	// Stemmer reduces each final token. Nil selects PorterStemmer.
	Stemmer Stemmer
}

// Normalizer turns raw questions into canonical, stemmed token streams.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	steps []Step
}

// New builds the normalization pipeline.
func New(cfg Config) *Normalizer {
	contractions := cfg.Contractions
	if contractions == nil {
		contractions = DefaultContractions()
	} else {
		contractions = copyTable(contractions)
	}
	stemmer := cfg.Stemmer
	if stemmer == nil {
		stemmer = PorterStemmer{}
	}

	return &Normalizer{
		steps: []Step{
			{Name: "lowercase", Apply: LowerTrim},
			{Name: "symbols", Apply: SubstituteSymbols},
			{Name: "numbers", Apply: CompactNumbers},
			{Name: "contractions", Apply: func(s string) string { return ExpandContractions(s, contractions) }},
			{Name: "markup", Apply: StripMarkup},
			{Name: "punctuation", Apply: RemovePunctuation},
			{Name: "stem", Apply: func(s string) string { return StemTokens(s, stemmer) }},
		},
	}
}

// Normalize runs every step in order.
func (n *Normalizer) Normalize(raw string) string {
	text := raw
	for _, step := range n.steps {
		text = step.Apply(text)
	}
	return text
}

// Trace runs the pipeline and records the intermediate text after each step.
func (n *Normalizer) Trace(raw string) []StepResult {
	out := make([]StepResult, 0, len(n.steps))
	text := raw
	for _, step := range n.steps {
		text = step.Apply(text)
		out = append(out, StepResult{Step: step.Name, Output: text})
	}
	return out
}

// StepNames lists the pipeline order.
func (n *Normalizer) StepNames() []string {
	names := make([]string, len(n.steps))
	for i, step := range n.steps {
		names[i] = step.Name
	}
	return names
}

func copyTable(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
