package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Features   FeaturesConfig   `yaml:"features"`
	Model      ModelConfig      `yaml:"model"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Cache      CacheConfig      `yaml:"cache"`
	History    HistoryConfig    `yaml:"history"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
	Retry        RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// AuthConfig guards the API with client-credential JWTs.
type AuthConfig struct {
	Enabled         bool           `yaml:"enabled"`
	Secret          string         `yaml:"secret"`
	Issuer          string         `yaml:"issuer"`
	TokenTTL        time.Duration  `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration  `yaml:"refreshTokenTtl"`
	Clients         []ClientConfig `yaml:"clients"`
}

// ClientConfig registers one API client. SecretHash is a bcrypt hash.
type ClientConfig struct {
	ID         string   `yaml:"id"`
	SecretHash string   `yaml:"secretHash"`
	Scopes     []string `yaml:"scopes"`
}

// NormalizerConfig selects the text normalization variant.
type NormalizerConfig struct {
	Stemmer string `yaml:"stemmer"`
}

// FeaturesConfig selects the feature extractor collaborators.
type FeaturesConfig struct {
	FuzzyBackend  string `yaml:"fuzzyBackend"`
	StopWordsPath string `yaml:"stopWordsPath"`
}

// ModelConfig points at the trained artifact.
type ModelConfig struct {
	Path        string            `yaml:"path"`
	Required    bool              `yaml:"required"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
}

// ObjectStoreConfig addresses the artifact in S3-compatible storage.
type ObjectStoreConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Key       string `yaml:"key"`
}

// DedupConfig controls the prediction service behavior. A zero Threshold
// defers to the model artifact, then to 0.5.
type DedupConfig struct {
	Threshold         float64       `yaml:"threshold"`
	CacheTTL          time.Duration `yaml:"cacheTtl"`
	MaxQuestionLength int           `yaml:"maxQuestionLength"`
	MaxBatchSize      int           `yaml:"maxBatchSize"`
	BatchConcurrency  int           `yaml:"batchConcurrency"`
	HistoryLimit      int           `yaml:"historyLimit"`
}

// CacheConfig configures verdict caching.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// HistoryConfig configures the prediction log.
type HistoryConfig struct {
	MemoryCapacity int            `yaml:"memoryCapacity"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from CONFIG_PATH or configs/config.yaml, then the environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom reads configuration from path. An empty path falls back to configs/config.yaml when present.
func LoadFrom(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v)
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("NORMALIZER_STEMMER"); v != "" {
		cfg.Normalizer.Stemmer = v
	}
	if v := os.Getenv("FEATURES_FUZZY_BACKEND"); v != "" {
		cfg.Features.FuzzyBackend = v
	}
	if v := os.Getenv("FEATURES_STOP_WORDS_PATH"); v != "" {
		cfg.Features.StopWordsPath = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("MODEL_REQUIRED"); v != "" {
		cfg.Model.Required = parseBool(v)
	}
	if v := os.Getenv("MODEL_OBJECT_STORE_ENABLED"); v != "" {
		cfg.Model.ObjectStore.Enabled = parseBool(v)
	}
	if v := os.Getenv("MODEL_OBJECT_STORE_ENDPOINT"); v != "" {
		cfg.Model.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("MODEL_OBJECT_STORE_ACCESS_KEY"); v != "" {
		cfg.Model.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("MODEL_OBJECT_STORE_SECRET_KEY"); v != "" {
		cfg.Model.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("MODEL_OBJECT_STORE_BUCKET"); v != "" {
		cfg.Model.ObjectStore.Bucket = v
	}
	if v := os.Getenv("MODEL_OBJECT_STORE_REGION"); v != "" {
		cfg.Model.ObjectStore.Region = v
	}
	if v := os.Getenv("MODEL_OBJECT_STORE_KEY"); v != "" {
		cfg.Model.ObjectStore.Key = v
	}
	if v := os.Getenv("DEDUP_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Dedup.Threshold = parsed
		}
	}
	if v := os.Getenv("DEDUP_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Dedup.CacheTTL = parsed
		}
	}
	if v := os.Getenv("DEDUP_MAX_QUESTION_LENGTH"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Dedup.MaxQuestionLength = parsed
		}
	}
	if v := os.Getenv("DEDUP_MAX_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Dedup.MaxBatchSize = parsed
		}
	}
	if v := os.Getenv("DEDUP_BATCH_CONCURRENCY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Dedup.BatchConcurrency = parsed
		}
	}
	if v := os.Getenv("CACHE_REDIS_ENABLED"); v != "" {
		cfg.Cache.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("CACHE_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
	if v := os.Getenv("HISTORY_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.Postgres.MinConns = int32(parsed)
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/predict/batch",
					"/api/v1/auth/token",
					"/api/v1/auth/refresh",
				},
			},
		},
		Auth: AuthConfig{
			Issuer:          "dupcheck",
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Normalizer: NormalizerConfig{
			Stemmer: "porter",
		},
		Features: FeaturesConfig{
			FuzzyBackend: "difflib",
		},
		Model: ModelConfig{
			Path: "models/model.json",
		},
		Dedup: DedupConfig{
			CacheTTL:          24 * time.Hour,
			MaxQuestionLength: 1000,
			MaxBatchSize:      100,
			BatchConcurrency:  8,
			HistoryLimit:      100,
		},
		Cache: CacheConfig{
			Redis: RedisConfig{
				Prefix: "dupcheck",
			},
		},
		History: HistoryConfig{
			MemoryCapacity: 1000,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.Auth.Enabled {
		if len(c.Auth.Secret) < 16 {
			return errors.New("auth.secret must be at least 16 characters when auth is enabled")
		}
		if c.Auth.TokenTTL <= 0 {
			return errors.New("auth.tokenTtl must be positive")
		}
		if c.Auth.RefreshTokenTTL <= 0 {
			return errors.New("auth.refreshTokenTtl must be positive")
		}
		for i, client := range c.Auth.Clients {
			if strings.TrimSpace(client.ID) == "" || client.SecretHash == "" {
				return fmt.Errorf("auth.clients[%d] needs id and secretHash", i)
			}
		}
	}
	switch strings.ToLower(c.Normalizer.Stemmer) {
	case "", "porter", "porter-classic", "snowball", "porter2":
	default:
		return fmt.Errorf("normalizer.stemmer %q is not supported", c.Normalizer.Stemmer)
	}
	switch strings.ToLower(c.Features.FuzzyBackend) {
	case "", "difflib", "levenshtein":
	default:
		return fmt.Errorf("features.fuzzyBackend %q is not supported", c.Features.FuzzyBackend)
	}
	if c.Model.ObjectStore.Enabled {
		if c.Model.ObjectStore.Bucket == "" || c.Model.ObjectStore.Key == "" {
			return errors.New("model.objectStore.bucket and key are required when the object store is enabled")
		}
	} else if strings.TrimSpace(c.Model.Path) == "" && c.Model.Required {
		return errors.New("model.path cannot be empty when the model is required")
	}
	if c.Dedup.Threshold < 0 || c.Dedup.Threshold > 1 {
		return errors.New("dedup.threshold must be within [0,1]")
	}
	if c.Dedup.CacheTTL < 0 {
		return errors.New("dedup.cacheTtl cannot be negative")
	}
	if c.Dedup.MaxQuestionLength < 0 {
		return errors.New("dedup.maxQuestionLength cannot be negative")
	}
	if c.Dedup.MaxBatchSize <= 0 {
		return errors.New("dedup.maxBatchSize must be positive")
	}
	if c.Dedup.BatchConcurrency <= 0 {
		return errors.New("dedup.batchConcurrency must be positive")
	}
	if c.Dedup.HistoryLimit <= 0 {
		return errors.New("dedup.historyLimit must be positive")
	}
	if c.Cache.Redis.Enabled && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return errors.New("cache.redis.addr cannot be empty when redis cache is enabled")
	}
	return nil
}
