package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/dupcheck/internal/bootstrap"
	"github.com/yanqian/dupcheck/internal/domain/auth"
	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/infra/config"
	"github.com/yanqian/dupcheck/internal/infra/historyrepo"
	"github.com/yanqian/dupcheck/internal/infra/model"
	"github.com/yanqian/dupcheck/internal/infra/verdictcache"
)

func provideModel(cfg *config.Config, logger *slog.Logger) (*model.Model, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m, err := bootstrap.LoadModel(ctx, cfg, logger)
	if err != nil {
		if cfg.Model.Required {
			return nil, err
		}
		logger.Error("model unavailable, serving analysis only", "error", err)
		return nil, nil
	}
	return m, nil
}

// provideDedupModel keeps a missing *model.Model from becoming a non-nil interface.
func provideDedupModel(m *model.Model) dedup.Model {
	if m == nil {
		return nil
	}
	return m
}

func provideDedupConfig(cfg *config.Config, m *model.Model) dedup.Config {
	return bootstrap.DedupConfig(cfg, m)
}

func provideVerdictCache(cfg *config.Config, resources *bootstrap.Resources, logger *slog.Logger) dedup.VerdictCache {
	if cfg.Cache.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return verdictcache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return verdictcache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
			client.Close()
		} else {
			logger.Info("valkey verdict cache enabled", "addr", cfg.Cache.Redis.Addr)
			resources.Add(client.Close)
			return verdictcache.NewValkeyStore(client, cfg.Cache.Redis.Prefix)
		}
	}
	return verdictcache.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Cache.Redis.Addr, "://") {
		return valkey.ParseURL(cfg.Cache.Redis.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Cache.Redis.Addr}}, nil
}

func provideHistoryRepository(cfg *config.Config, resources *bootstrap.Resources, logger *slog.Logger) dedup.HistoryRepository {
	fallback := historyrepo.NewMemoryRepository(cfg.History.MemoryCapacity)
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := historyrepo.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("prediction schema setup failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	resources.Add(pool.Close)
	logger.Info("history postgres repository enabled")
	return repo
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:          cfg.Auth.Secret,
		Issuer:          cfg.Auth.Issuer,
		TokenTTL:        cfg.Auth.TokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}
}

func provideAuthRepository(cfg *config.Config) auth.Repository {
	clients := make([]auth.Client, 0, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		clients = append(clients, auth.Client{ID: c.ID, SecretHash: c.SecretHash, Scopes: c.Scopes})
	}
	return auth.NewStaticRepository(clients)
}
