package dedup

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/dupcheck/internal/domain/textnorm"
	"github.com/yanqian/dupcheck/pkg/metrics"
)

// Verdict labels.
const (
	ResultDuplicate    = "Duplicate"
	ResultNotDuplicate = "Not Duplicate"
)

// Prediction sources.
const (
	SourceModel = "model"
	SourceCache = "cache"
)

// Request carries one question pair. Both fields may be empty.
type Request struct {
	Question1 string `json:"question1" form:"question1"`
	Question2 string `json:"question2" form:"question2"`
}

// BatchRequest wraps several pairs scored in one call.
type BatchRequest struct {
	Pairs []Request `json:"pairs"`
}

// Response is returned to the HTTP transport.
type Response struct {
	Question1    string                `json:"question1"`
	Question2    string                `json:"question2"`
	Normalized1  string                `json:"normalized1"`
	Normalized2  string                `json:"normalized2"`
	Features     []float64             `json:"features"`
	Probability  float64               `json:"probability"`
	Duplicate    bool                  `json:"duplicate"`
	Result       string                `json:"result"`
	Source       string                `json:"source"`
	ModelVersion string                `json:"modelVersion,omitempty"`
	Timings      *metrics.StageTimings `json:"timings,omitempty"`
	DurationMs   int64                 `json:"durationMs"`
}

// AnalyzeResponse exposes the feature pipeline without classification.
type AnalyzeResponse struct {
	Normalized1  string    `json:"normalized1"`
	Normalized2  string    `json:"normalized2"`
	Features     []float64 `json:"features"`
	FeatureNames []string  `json:"featureNames"`
}

// NormalizeResponse shows how a single question was canonicalized.
type NormalizeResponse struct {
	Text       string                `json:"text"`
	Normalized string                `json:"normalized"`
	Steps      []textnorm.StepResult `json:"steps"`
}

// CachedVerdict is the payload persisted in the verdict cache.
type CachedVerdict struct {
	Probability  float64   `json:"probability"`
	Duplicate    bool      `json:"duplicate"`
	ModelVersion string    `json:"modelVersion"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PredictionRecord is one scored pair kept in the history log.
type PredictionRecord struct {
	ID           uuid.UUID `json:"id"`
	Question1    string    `json:"question1"`
	Question2    string    `json:"question2"`
	Normalized1  string    `json:"normalized1"`
	Normalized2  string    `json:"normalized2"`
	Features     []float64 `json:"features"`
	Probability  float64   `json:"probability"`
	Duplicate    bool      `json:"duplicate"`
	ModelVersion string    `json:"modelVersion"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryMatch is a past prediction ranked by feature-space distance.
type HistoryMatch struct {
	Record   PredictionRecord `json:"record"`
	Distance float64          `json:"distance"`
}

// SimilarResponse lists past predictions resembling a pair.
type SimilarResponse struct {
	Normalized1 string         `json:"normalized1"`
	Normalized2 string         `json:"normalized2"`
	Features    []float64      `json:"features"`
	Matches     []HistoryMatch `json:"matches"`
}

func resultLabel(duplicate bool) string {
	if duplicate {
		return ResultDuplicate
	}
	return ResultNotDuplicate
}
