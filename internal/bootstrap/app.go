package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
	"github.com/yanqian/dupcheck/internal/infra/config"
)

// Resources collects release hooks for connections opened while wiring.
type Resources struct {
	mu      sync.Mutex
	closers []func()
}

// NewResources returns an empty registry.
func NewResources() *Resources {
	return &Resources{}
}

// Add registers fn to run on Close.
func (r *Resources) Add(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, fn)
}

// Close runs the hooks in reverse registration order. It is safe to call twice.
func (r *Resources) Close() {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	svc       dedup.Service
	resources *Resources
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, svc dedup.Service, resources *Resources) *App {
	return &App{
		cfg:       cfg,
		logger:    logger.With("component", "bootstrap"),
		server:    server,
		svc:       svc,
		resources: resources,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	defer a.resources.Close()
	errCh := make(chan error, 1)

	if !a.svc.Ready() {
		a.logger.Warn("no model loaded, prediction endpoints will answer 503")
	}

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "auth", a.cfg.Auth.Enabled)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
