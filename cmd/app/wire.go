//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/dupcheck/internal/bootstrap"
	"github.com/yanqian/dupcheck/internal/domain/auth"
	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/domain/features"
	"github.com/yanqian/dupcheck/internal/domain/textnorm"
	"github.com/yanqian/dupcheck/internal/infra/config"
	httpiface "github.com/yanqian/dupcheck/internal/interface/http"
	"github.com/yanqian/dupcheck/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		bootstrap.NewResources,
		bootstrap.NewNormalizer,
		bootstrap.NewExtractor,
		provideModel,
		provideDedupModel,
		provideDedupConfig,
		provideVerdictCache,
		provideHistoryRepository,
		provideAuthConfig,
		provideAuthRepository,
		dedup.NewService,
		auth.NewService,
		wire.Bind(new(dedup.Normalizer), new(*textnorm.Normalizer)),
		wire.Bind(new(dedup.FeatureExtractor), new(*features.Extractor)),
		httpiface.NewHandler,
		httpiface.NewAuthHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
