package historyrepo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
)

const defaultMemoryCapacity = 1000

// MemoryRepository is an in-memory prediction log used for tests/dev.
// Once capacity is reached the oldest records are dropped.
type MemoryRepository struct {
	mu       sync.RWMutex
	capacity int
	records  []dedup.PredictionRecord
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository(capacity int) *MemoryRepository {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryRepository{capacity: capacity}
}

// Insert implements dedup.HistoryRepository.
func (r *MemoryRepository) Insert(_ context.Context, record dedup.PredictionRecord) error {
	record.Features = append([]float64(nil), record.Features...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	if overflow := len(r.records) - r.capacity; overflow > 0 {
		r.records = append(r.records[:0:0], r.records[overflow:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]dedup.PredictionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]dedup.PredictionRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

// Nearest ranks stored records by Euclidean distance between feature vectors.
func (r *MemoryRepository) Nearest(_ context.Context, vector []float64, limit int) ([]dedup.HistoryMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]dedup.HistoryMatch, 0, len(r.records))
	for _, rec := range r.records {
		matches = append(matches, dedup.HistoryMatch{
			Record:   rec,
			Distance: euclideanDistance(vector, rec.Features),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func euclideanDistance(a, b []float64) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	var sum float64
	for i := 0; i < length; i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

var _ dedup.HistoryRepository = (*MemoryRepository)(nil)
