package model

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/yanqian/dupcheck/internal/domain/features"
)

// Artifact is the serialized form of a trained model.
type Artifact struct {
	Version    string         `json:"version"`
	Vocabulary map[string]int `json:"vocabulary"`
	Weights    []float64      `json:"weights"`
	Intercept  float64        `json:"intercept"`
	Threshold  float64        `json:"threshold,omitempty"`
}

// Validate checks that the artifact describes a usable classifier.
func (a Artifact) Validate() error {
	if len(a.Vocabulary) == 0 {
		return fmt.Errorf("vocabulary is empty")
	}
	seen := make([]bool, len(a.Vocabulary))
	for term, column := range a.Vocabulary {
		if column < 0 || column >= len(seen) {
			return fmt.Errorf("term %q has column %d outside [0,%d)", term, column, len(seen))
		}
		if seen[column] {
			return fmt.Errorf("column %d is assigned twice", column)
		}
		seen[column] = true
	}
	want := features.Width + 2*len(a.Vocabulary)
	if len(a.Weights) != want {
		return fmt.Errorf("expected %d weights, got %d", want, len(a.Weights))
	}
	for i, w := range a.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("weight %d is not finite", i)
		}
	}
	if a.Threshold < 0 || a.Threshold > 1 {
		return fmt.Errorf("threshold %v outside [0,1]", a.Threshold)
	}
	return nil
}

// Model bundles the vectorizer and classifier of one artifact.
type Model struct {
	version    string
	threshold  float64
	vectorizer *CountVectorizer
	classifier *LogisticClassifier
}

// New validates the artifact and builds a ready model.
func New(a Artifact) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	version := a.Version
	if version == "" {
		version = "unversioned"
	}
	return &Model{
		version:    version,
		threshold:  a.Threshold,
		vectorizer: NewCountVectorizer(a.Vocabulary),
		classifier: NewLogisticClassifier(a.Weights, a.Intercept),
	}, nil
}

// Decode reads a JSON artifact.
func Decode(r io.Reader) (*Model, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return New(a)
}

// Transform returns bag-of-words counts for text.
func (m *Model) Transform(text string) []float64 {
	return m.vectorizer.Transform(text)
}

// PredictProbability scores an assembled input row.
func (m *Model) PredictProbability(input []float64) (float64, error) {
	return m.classifier.PredictProbability(input)
}

func (m *Model) Version() string { return m.version }

// Threshold is the decision threshold trained alongside the weights; zero means unset.
func (m *Model) Threshold() float64 { return m.threshold }

// VocabularySize is the width of one bag-of-words block.
func (m *Model) VocabularySize() int { return m.vectorizer.Width() }

// InputWidth is the length of the assembled classifier input.
func (m *Model) InputWidth() int { return m.classifier.InputWidth() }
