package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/dupcheck/internal/infra/config"
)

// ScopePredict guards the prediction endpoints when auth is enabled.
const ScopePredict = "predict"

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authHandler *AuthHandler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.CORSOrigins),
		errorHandlingMiddleware(logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, logger),
	)

	router.GET("/healthz", handler.Health)

	var guard []gin.HandlerFunc
	if cfg.Auth.Enabled {
		guard = append(guard, authMiddleware(authHandler.svc, ScopePredict))
		tokens := router.Group("/api/v1/auth")
		{
			tokens.POST("/token", authHandler.Token)
			tokens.POST("/refresh", authHandler.Refresh)
		}
	}

	// Form posts from the legacy web page land here.
	router.POST("/predict", append(guard, handler.Predict)...)

	api := router.Group("/api/v1", guard...)
	{
		api.POST("/predict", handler.Predict)
		api.POST("/predict/batch", handler.PredictBatch)
		api.POST("/features", handler.Features)
		api.POST("/normalize", handler.Normalize)
		api.GET("/predictions", handler.History)
		api.POST("/predictions/similar", handler.Similar)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
