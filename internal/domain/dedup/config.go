package dedup

import "time"

// Config holds runtime knobs for the duplicate detection service.
type Config struct {
	// Threshold: only probabilities strictly above it are duplicates.
	Threshold         float64
	CacheTTL          time.Duration
	MaxQuestionLength int
	MaxBatchSize      int
	BatchConcurrency  int
	HistoryLimit      int
}
