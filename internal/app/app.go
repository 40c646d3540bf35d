// Package app wires configuration, telemetry, the store adapter, the two
// query engines, and the HTTP surface into a runnable service, and owns
// the process's graceful-shutdown lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	credentialingapi "github.com/practicepulse/feestrategy/internal/api/credentialing"
	"github.com/practicepulse/feestrategy/internal/api/feestrategy"
	"github.com/practicepulse/feestrategy/internal/cache"
	"github.com/practicepulse/feestrategy/internal/config"
	credentialingengine "github.com/practicepulse/feestrategy/internal/credentialing"
	"github.com/practicepulse/feestrategy/internal/httpserver"
	"github.com/practicepulse/feestrategy/internal/pivot"
	"github.com/practicepulse/feestrategy/internal/store"
	"github.com/practicepulse/feestrategy/internal/telemetry"
)

// App owns every long-lived dependency and the HTTP server built from them.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Adapter
	server *http.Server
}

// New connects to the store and wires the full dependency graph. Callers
// must call Close when done, whether or not Run was ever called.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	st, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	httpSrv := httpserver.NewServer(httpserver.ServerConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, logger, st, metricsReg)

	responseCache := cache.New()
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second

	pivotEngine := pivot.NewEngine(st, logger, location, cfg.DebugPivot)
	pivotHandler := feestrategy.NewHandler(pivotEngine, responseCache, logger, ttl)
	httpSrv.Router.Mount("/api/fee-strategy", pivotHandler.Routes())
	httpSrv.Router.Get("/fee-strategy/pivot-data", feestrategy.RedirectPivotData)

	credEngine := credentialingengine.NewEngine(st)
	credHandler := credentialingapi.NewHandler(credEngine, responseCache, logger, ttl)
	httpSrv.Router.Mount("/api/credentialing", credHandler.Routes())

	httpSrv.Router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpserver.RespondError(w, http.StatusNotFound, "not found")
	})

	// Bound every request, and so every aggregation it runs, by the
	// configured deadline.
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqCtx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		httpSrv.ServeHTTP(w, r.WithContext(reqCtx))
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  st,
		server: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Logger exposes the application's structured logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Run starts the HTTP listener and blocks until ctx is canceled, then stops
// accepting new requests and drains in-flight ones before returning.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	a.logger.Info("shutting down")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// Close releases the store connection. Safe to call after a failed New.
func (a *App) Close(ctx context.Context) error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}
