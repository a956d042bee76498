package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/domain/features"
	"github.com/yanqian/dupcheck/internal/domain/fuzzy"
	"github.com/yanqian/dupcheck/internal/domain/textnorm"
	"github.com/yanqian/dupcheck/internal/infra/config"
	"github.com/yanqian/dupcheck/internal/infra/model"
)

// DefaultThreshold applies when neither config nor the model artifact sets one.
const DefaultThreshold = 0.5

// NewNormalizer builds the normalizer with the configured stemmer.
func NewNormalizer(cfg *config.Config) (*textnorm.Normalizer, error) {
	stemmer, err := textnorm.NewStemmer(cfg.Normalizer.Stemmer)
	if err != nil {
		return nil, err
	}
	return textnorm.New(textnorm.Config{Stemmer: stemmer}), nil
}

// NewExtractor builds the feature extractor with the configured stop words and fuzzy backend.
func NewExtractor(cfg *config.Config) (*features.Extractor, error) {
	scorer, err := fuzzy.NewScorer(cfg.Features.FuzzyBackend)
	if err != nil {
		return nil, err
	}
	stopWords := features.EnglishStopWords()
	if path := strings.TrimSpace(cfg.Features.StopWordsPath); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open stop words: %w", err)
		}
		defer f.Close()
		stopWords, err = features.LoadStopWords(f)
		if err != nil {
			return nil, err
		}
	}
	return features.NewExtractor(stopWords, scorer), nil
}

// ModelSource picks the object store when enabled, otherwise the local file.
func ModelSource(cfg *config.Config, logger *slog.Logger) (model.Source, error) {
	store := cfg.Model.ObjectStore
	if !store.Enabled {
		return model.FileSource{Path: cfg.Model.Path}, nil
	}
	return model.NewObjectSource(model.ObjectStoreConfig{
		Endpoint:  store.Endpoint,
		AccessKey: store.AccessKey,
		SecretKey: store.SecretKey,
		Bucket:    store.Bucket,
		Region:    store.Region,
		Key:       store.Key,
	}, logger)
}

// LoadModel fetches and validates the configured model artifact.
func LoadModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.Model, error) {
	src, err := ModelSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	m, err := model.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded", "source", src.String(), "version", m.Version(), "vocabulary", m.VocabularySize())
	return m, nil
}

// DedupConfig resolves service settings, falling back to the model's trained threshold.
func DedupConfig(cfg *config.Config, m *model.Model) dedup.Config {
	threshold := cfg.Dedup.Threshold
	if threshold == 0 && m != nil {
		threshold = m.Threshold()
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return dedup.Config{
		Threshold:         threshold,
		CacheTTL:          cfg.Dedup.CacheTTL,
		MaxQuestionLength: cfg.Dedup.MaxQuestionLength,
		MaxBatchSize:      cfg.Dedup.MaxBatchSize,
		BatchConcurrency:  cfg.Dedup.BatchConcurrency,
		HistoryLimit:      cfg.Dedup.HistoryLimit,
	}
}
