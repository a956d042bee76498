package dedup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/dupcheck/internal/domain/features"
	"github.com/yanqian/dupcheck/internal/domain/textnorm"
	apperrors "github.com/yanqian/dupcheck/pkg/errors"
)

type stubModel struct {
	mu          sync.Mutex
	probability float64
	err         error
	calls       int
	lastInput   []float64
}

func (m *stubModel) Transform(text string) []float64 {
	if text == "" {
		return []float64{0, 0}
	}
	return []float64{1, 0}
}

func (m *stubModel) PredictProbability(input []float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastInput = input
	return m.probability, m.err
}

func (m *stubModel) Version() string { return "test-v1" }

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]CachedVerdict
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]CachedVerdict{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (CachedVerdict, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return CachedVerdict{}, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Save(_ context.Context, key string, verdict CachedVerdict, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = verdict
	return nil
}

type memoryHistory struct {
	mu        sync.Mutex
	records   []PredictionRecord
	lastLimit int
	err       error
}

func (h *memoryHistory) Insert(_ context.Context, record PredictionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, record)
	return h.err
}

func (h *memoryHistory) Recent(_ context.Context, limit int) ([]PredictionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastLimit = limit
	if h.err != nil {
		return nil, h.err
	}
	return h.records, nil
}

func (h *memoryHistory) Nearest(_ context.Context, _ []float64, limit int) ([]HistoryMatch, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastLimit = limit
	if h.err != nil {
		return nil, h.err
	}
	out := make([]HistoryMatch, 0, len(h.records))
	for _, rec := range h.records {
		out = append(out, HistoryMatch{Record: rec})
	}
	return out, nil
}

func testConfig() Config {
	return Config{
		Threshold:         0.5,
		CacheTTL:          time.Minute,
		MaxQuestionLength: 50,
		MaxBatchSize:      3,
		BatchConcurrency:  2,
		HistoryLimit:      10,
	}
}

func newTestService(model Model, cache VerdictCache, history HistoryRepository) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	normalizer := textnorm.New(textnorm.Config{})
	extractor := features.NewExtractor(features.StopWords{}, nil)
	return NewService(testConfig(), normalizer, extractor, model, cache, history, logger)
}

func TestPredictUsesModelThenCache(t *testing.T) {
	model := &stubModel{probability: 0.8}
	cache := newMemoryCache()
	history := &memoryHistory{}
	svc := newTestService(model, cache, history)

	req := Request{Question1: "What is the capital of France?", Question2: "What's the capital city of France?"}
	resp, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, SourceModel, resp.Source)
	require.True(t, resp.Duplicate)
	require.Equal(t, ResultDuplicate, resp.Result)
	require.Equal(t, "what is the capit of franc", resp.Normalized1)
	require.Len(t, resp.Features, features.Width)
	require.Len(t, model.lastInput, features.Width+4)
	require.Equal(t, []float64{1, 0, 1, 0}, model.lastInput[features.Width:])
	require.Len(t, history.records, 1)
	require.Equal(t, "test-v1", history.records[0].ModelVersion)

	again, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, SourceCache, again.Source)
	require.Equal(t, 0.8, again.Probability)
	require.Equal(t, 1, model.calls)
	require.Len(t, history.records, 1)
}

func TestPredictThresholdIsExclusive(t *testing.T) {
	// A probability exactly at the threshold is a zero decision score.
	svc := newTestService(&stubModel{probability: 0.5}, nil, nil)
	resp, err := svc.Predict(context.Background(), Request{Question1: "a", Question2: "b"})
	require.NoError(t, err)
	require.False(t, resp.Duplicate)
	require.Equal(t, ResultNotDuplicate, resp.Result)

	svc = newTestService(&stubModel{probability: 0.51}, nil, nil)
	resp, err = svc.Predict(context.Background(), Request{Question1: "a", Question2: "b"})
	require.NoError(t, err)
	require.True(t, resp.Duplicate)
	require.Equal(t, ResultDuplicate, resp.Result)
}

func TestPredictAcceptsEmptyQuestions(t *testing.T) {
	svc := newTestService(&stubModel{probability: 0.1}, nil, nil)
	resp, err := svc.Predict(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 100, 100, 0}, resp.Features[features.Width-features.FuzzyCount:])
}

func TestPredictRejectsLongQuestion(t *testing.T) {
	svc := newTestService(&stubModel{}, nil, nil)
	long := make([]rune, 51)
	for i := range long {
		long[i] = 'é'
	}
	_, err := svc.Predict(context.Background(), Request{Question1: string(long)})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestPredictWithoutModel(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	require.False(t, svc.Ready())
	_, err := svc.Predict(context.Background(), Request{Question1: "a", Question2: "b"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeModelUnavailable))

	analysis, err := svc.Analyze(context.Background(), Request{Question1: "a", Question2: "b"})
	require.NoError(t, err)
	require.Len(t, analysis.FeatureNames, features.Width)
}

func TestPredictClassifierFailure(t *testing.T) {
	svc := newTestService(&stubModel{err: errors.New("boom")}, nil, nil)
	_, err := svc.Predict(context.Background(), Request{Question1: "a", Question2: "b"})
	require.True(t, apperrors.IsCode(err, apperrors.CodePrediction))
}

func TestPredictToleratesCacheAndHistoryFailures(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("cache down")
	history := &memoryHistory{err: errors.New("db down")}
	svc := newTestService(&stubModel{probability: 0.9}, cache, history)
	resp, err := svc.Predict(context.Background(), Request{Question1: "a", Question2: "b"})
	require.NoError(t, err)
	require.Equal(t, SourceModel, resp.Source)
}

func TestPredictBatchPreservesOrder(t *testing.T) {
	svc := newTestService(&stubModel{probability: 0.7}, nil, nil)
	reqs := []Request{
		{Question1: "first question", Question2: "first"},
		{Question1: "second question", Question2: "second"},
		{Question1: "third question", Question2: "third"},
	}
	resps, err := svc.PredictBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, resps, 3)
	for i := range reqs {
		require.Equal(t, reqs[i].Question1, resps[i].Question1)
	}
}

func TestPredictBatchValidation(t *testing.T) {
	svc := newTestService(&stubModel{}, nil, nil)
	_, err := svc.PredictBatch(context.Background(), nil)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.PredictBatch(context.Background(), make([]Request, 4))
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestNormalizeTrace(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	resp, err := svc.Normalize(context.Background(), "I've 1,000 <b>cats</b>")
	require.NoError(t, err)
	require.Equal(t, "i have 1k cat", resp.Normalized)
	require.Len(t, resp.Steps, 7)
	require.Equal(t, "lowercase", resp.Steps[0].Step)
}

func TestHistoryClampsLimit(t *testing.T) {
	history := &memoryHistory{}
	svc := newTestService(&stubModel{}, nil, history)

	records, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Equal(t, 10, history.lastLimit)

	_, err = svc.History(context.Background(), 500)
	require.NoError(t, err)
	require.Equal(t, 10, history.lastLimit)

	history.err = errors.New("db down")
	_, err = svc.History(context.Background(), 5)
	require.True(t, apperrors.IsCode(err, apperrors.CodeHistory))
}

func TestCacheKeyIsOrdered(t *testing.T) {
	require.NotEqual(t, CacheKey("v", "a", "b"), CacheKey("v", "b", "a"))
	require.NotEqual(t, CacheKey("v1", "a", "b"), CacheKey("v2", "a", "b"))
	require.Equal(t, CacheKey("v", "a", "b"), CacheKey("v", "a", "b"))
}

func TestSimilarUsesHistory(t *testing.T) {
	history := &memoryHistory{}
	svc := newTestService(&stubModel{probability: 0.3}, nil, history)
	req := Request{Question1: "how do i learn go", Question2: "best way to learn go"}
	_, err := svc.Predict(context.Background(), req)
	require.NoError(t, err)

	resp, err := svc.Similar(context.Background(), req, 0)
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	require.Equal(t, req.Question1, resp.Matches[0].Record.Question1)
	require.Equal(t, 10, history.lastLimit)

	empty, err := newTestService(nil, nil, nil).Similar(context.Background(), req, 5)
	require.NoError(t, err)
	require.Empty(t, empty.Matches)
	require.Len(t, empty.Features, features.Width)
}
