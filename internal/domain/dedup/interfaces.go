package dedup

import (
	"context"
	"time"

	"github.com/yanqian/dupcheck/internal/domain/features"
	"github.com/yanqian/dupcheck/internal/domain/textnorm"
)

// Normalizer canonicalizes a raw question.
type Normalizer interface {
	Normalize(raw string) string
	Trace(raw string) []textnorm.StepResult
}

// FeatureExtractor encodes a normalized pair as a fixed-width vector.
type FeatureExtractor interface {
	Extract(q1, q2 string) features.Vector
}

// Model is the pre-trained bag-of-words vectorizer and binary classifier.
type Model interface {
	Transform(text string) []float64
	PredictProbability(input []float64) (float64, error)
	Version() string
}

// VerdictCache stores classifier outcomes keyed by normalized pair.
type VerdictCache interface {
	Get(ctx context.Context, key string) (CachedVerdict, bool, error)
	Save(ctx context.Context, key string, verdict CachedVerdict, ttl time.Duration) error
}

// HistoryRepository keeps an append-only log of predictions.
type HistoryRepository interface {
	Insert(ctx context.Context, record PredictionRecord) error
	Recent(ctx context.Context, limit int) ([]PredictionRecord, error)
	// Nearest returns past predictions whose feature vectors are closest to vector.
	Nearest(ctx context.Context, vector []float64, limit int) ([]HistoryMatch, error)
}
