// Package httpserver wires the chi router, ambient middleware, and the two
// health/ops endpoints that are not part of either analytical surface.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/practicepulse/feestrategy/internal/store"
)

// ServerConfig holds the parameters NewServer needs, decoupled from the
// top-level configuration struct.
type ServerConfig struct {
	CORSAllowedOrigins []string
}

// Server holds the HTTP server dependencies. Domain handlers are mounted
// onto Router by the caller after NewServer returns.
type Server struct {
	Router  *chi.Mux
	Logger  *slog.Logger
	Store   *store.Adapter
	Metrics *prometheus.Registry
}

// NewServer creates an HTTP server with ambient middleware and the
// unauthenticated health/metrics endpoints mounted.
func NewServer(cfg ServerConfig, logger *slog.Logger, st *store.Adapter, metricsReg *prometheus.Registry) *Server {
	s := &Server{
		Router:  chi.NewRouter(),
		Logger:  logger,
		Store:   st,
		Metrics: metricsReg,
	}

	s.Router.Use(RequestID)
	s.Router.Use(Logger(logger))
	s.Router.Use(Metrics)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Cache"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoint is not authenticated; it reports the store's
	// database-boundary check.
	s.Router.Get("/health", s.handleHealth)

	// Prometheus metrics.
	s.Router.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth reports process liveness plus the store's database-boundary
// check: collections that begin with PDC_ must live only in crucible, and
// locations/processedclaims/jobs must live only in their respective
// databases. A boundary violation is a health-check failure, never a
// runtime error surfaced to callers of the analytical endpoints.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.Store.CheckBoundaries(r.Context()); err != nil {
		s.Logger.Error("health check: database boundary violation", "error", err)
		status = "degraded"
	}
	Respond(w, http.StatusOK, healthResponse{Status: status, Timestamp: time.Now().UTC()})
}
