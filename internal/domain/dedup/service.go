package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yanqian/dupcheck/internal/domain/features"
	apperrors "github.com/yanqian/dupcheck/pkg/errors"
	"github.com/yanqian/dupcheck/pkg/metrics"
	"github.com/yanqian/dupcheck/pkg/util"
)

// Service exposes duplicate question detection.
type Service interface {
	Predict(ctx context.Context, req Request) (Response, error)
	PredictBatch(ctx context.Context, reqs []Request) ([]Response, error)
	Analyze(ctx context.Context, req Request) (AnalyzeResponse, error)
	Normalize(ctx context.Context, text string) (NormalizeResponse, error)
	History(ctx context.Context, limit int) ([]PredictionRecord, error)
	Similar(ctx context.Context, req Request, limit int) (SimilarResponse, error)
	Ready() bool
}

type service struct {
	cfg        Config
	normalizer Normalizer
	extractor  FeatureExtractor
	model      Model
	cache      VerdictCache
	history    HistoryRepository
	logger     *slog.Logger
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewService wires up the dedup domain. model may be nil, in which case
// predictions fail with model_unavailable while analysis keeps working.
func NewService(cfg Config, normalizer Normalizer, extractor FeatureExtractor, model Model, cache VerdictCache, history HistoryRepository, logger *slog.Logger) Service {
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 1
	}
	return &service{
		cfg:        cfg,
		normalizer: normalizer,
		extractor:  extractor,
		model:      model,
		cache:      cache,
		history:    history,
		logger:     logger.With("component", "dedup.service"),
		now:        util.NowUTC,
		newID:      uuid.New,
	}
}

type analysis struct {
	normalized1 string
	normalized2 string
	vector      features.Vector
	timings     metrics.StageTimings
}

func (s *service) Ready() bool {
	return s.model != nil
}

func (s *service) Predict(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	if err := s.validate(req); err != nil {
		return Response{}, err
	}
	if s.model == nil {
		return Response{}, apperrors.Wrap(apperrors.CodeModelUnavailable, "model is not loaded", nil)
	}

	a := s.analyze(req)
	version := s.model.Version()
	key := CacheKey(version, a.normalized1, a.normalized2)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("verdict cache lookup failed", "error", err)
		} else if ok {
			resp := s.respond(req, a, cached.Probability, cached.Duplicate, SourceCache, version)
			resp.DurationMs = util.SinceMillis(start)
			return resp, nil
		}
	}

	classifyStart := time.Now()
	input := Assemble(a.vector, s.model.Transform(a.normalized1), s.model.Transform(a.normalized2))
	probability, err := s.model.PredictProbability(input)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodePrediction, "classifier failed", err)
	}
	a.timings.ClassifyMicros = metrics.Micros(time.Since(classifyStart))
	duplicate := probability > s.cfg.Threshold

	createdAt := s.now()
	if s.cache != nil {
		verdict := CachedVerdict{Probability: probability, Duplicate: duplicate, ModelVersion: version, CreatedAt: createdAt}
		if err := s.cache.Save(ctx, key, verdict, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("verdict cache save failed", "error", err)
		}
	}
	if s.history != nil {
		record := PredictionRecord{
			ID:           s.newID(),
			Question1:    req.Question1,
			Question2:    req.Question2,
			Normalized1:  a.normalized1,
			Normalized2:  a.normalized2,
			Features:     a.vector.Slice(),
			Probability:  probability,
			Duplicate:    duplicate,
			ModelVersion: version,
			CreatedAt:    createdAt,
		}
		if err := s.history.Insert(ctx, record); err != nil {
			s.logger.Warn("prediction history insert failed", "error", err)
		}
	}

	resp := s.respond(req, a, probability, duplicate, SourceModel, version)
	resp.DurationMs = util.SinceMillis(start)
	s.logger.Debug("prediction completed",
		"probability", probability,
		"duplicate", duplicate,
		"durationMs", resp.DurationMs,
	)
	return resp, nil
}

func (s *service) PredictBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	if len(reqs) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "batch cannot be empty", nil)
	}
	if s.cfg.MaxBatchSize > 0 && len(reqs) > s.cfg.MaxBatchSize {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("batch exceeds %d pairs", s.cfg.MaxBatchSize), nil)
	}
	for i, req := range reqs {
		if err := s.validate(req); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("pair %d is invalid", i), err)
		}
	}
	if s.model == nil {
		return nil, apperrors.Wrap(apperrors.CodeModelUnavailable, "model is not loaded", nil)
	}

	results := make([]Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			resp, err := s.Predict(gctx, req)
			if err != nil {
				return err
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *service) Analyze(_ context.Context, req Request) (AnalyzeResponse, error) {
	if err := s.validate(req); err != nil {
		return AnalyzeResponse{}, err
	}
	a := s.analyze(req)
	return AnalyzeResponse{
		Normalized1:  a.normalized1,
		Normalized2:  a.normalized2,
		Features:     a.vector.Slice(),
		FeatureNames: append([]string(nil), features.Names[:]...),
	}, nil
}

func (s *service) Normalize(_ context.Context, text string) (NormalizeResponse, error) {
	if err := s.checkLength(text); err != nil {
		return NormalizeResponse{}, err
	}
	steps := s.normalizer.Trace(text)
	normalized := ""
	if len(steps) > 0 {
		normalized = steps[len(steps)-1].Output
	}
	return NormalizeResponse{Text: text, Normalized: normalized, Steps: steps}, nil
}

func (s *service) History(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if s.history == nil {
		return []PredictionRecord{}, nil
	}
	if limit <= 0 || (s.cfg.HistoryLimit > 0 && limit > s.cfg.HistoryLimit) {
		limit = s.cfg.HistoryLimit
	}
	records, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeHistory, "failed to load prediction history", err)
	}
	if records == nil {
		records = []PredictionRecord{}
	}
	return records, nil
}

func (s *service) Similar(ctx context.Context, req Request, limit int) (SimilarResponse, error) {
	if err := s.validate(req); err != nil {
		return SimilarResponse{}, err
	}
	a := s.analyze(req)
	resp := SimilarResponse{
		Normalized1: a.normalized1,
		Normalized2: a.normalized2,
		Features:    a.vector.Slice(),
		Matches:     []HistoryMatch{},
	}
	if s.history == nil {
		return resp, nil
	}
	if limit <= 0 || (s.cfg.HistoryLimit > 0 && limit > s.cfg.HistoryLimit) {
		limit = s.cfg.HistoryLimit
	}
	matches, err := s.history.Nearest(ctx, resp.Features, limit)
	if err != nil {
		return SimilarResponse{}, apperrors.Wrap(apperrors.CodeHistory, "similarity lookup failed", err)
	}
	if matches != nil {
		resp.Matches = matches
	}
	return resp, nil
}

func (s *service) analyze(req Request) analysis {
	var a analysis
	start := time.Now()
	a.normalized1 = s.normalizer.Normalize(req.Question1)
	a.normalized2 = s.normalizer.Normalize(req.Question2)
	a.timings.NormalizeMicros = metrics.Micros(time.Since(start))

	start = time.Now()
	a.vector = s.extractor.Extract(a.normalized1, a.normalized2)
	a.timings.FeaturesMicros = metrics.Micros(time.Since(start))
	return a
}

func (s *service) respond(req Request, a analysis, probability float64, duplicate bool, source, version string) Response {
	timings := a.timings
	return Response{
		Question1:    req.Question1,
		Question2:    req.Question2,
		Normalized1:  a.normalized1,
		Normalized2:  a.normalized2,
		Features:     a.vector.Slice(),
		Probability:  probability,
		Duplicate:    duplicate,
		Result:       resultLabel(duplicate),
		Source:       source,
		ModelVersion: version,
		Timings:      &timings,
	}
}

func (s *service) validate(req Request) error {
	if err := s.checkLength(req.Question1); err != nil {
		return err
	}
	return s.checkLength(req.Question2)
}

func (s *service) checkLength(text string) error {
	if s.cfg.MaxQuestionLength > 0 && util.RuneLen(text) > s.cfg.MaxQuestionLength {
		return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("question exceeds %d characters", s.cfg.MaxQuestionLength), nil)
	}
	return nil
}

// Assemble lays out the classifier input: handcrafted features first, then
// the bag-of-words counts of question 1, then those of question 2.
func Assemble(v features.Vector, q1Counts, q2Counts []float64) []float64 {
	out := make([]float64, 0, features.Width+len(q1Counts)+len(q2Counts))
	out = append(out, v.Slice()...)
	out = append(out, q1Counts...)
	out = append(out, q2Counts...)
	return out
}

// CacheKey derives a stable key for an ordered normalized pair.
func CacheKey(version, normalized1, normalized2 string) string {
	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(normalized1))
	h.Write([]byte{0})
	h.Write([]byte(normalized2))
	return hex.EncodeToString(h.Sum(nil))
}
