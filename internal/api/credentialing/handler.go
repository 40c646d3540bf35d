// Package credentialingapi implements the HTTP surface for the
// Credentialing Status Report: JSON and CSV endpoints backed by a shared
// response cache.
package credentialingapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/practicepulse/feestrategy/internal/apperr"
	"github.com/practicepulse/feestrategy/internal/cache"
	"github.com/practicepulse/feestrategy/internal/credentialing"
	"github.com/practicepulse/feestrategy/internal/csvexport"
	"github.com/practicepulse/feestrategy/internal/filter"
	"github.com/practicepulse/feestrategy/internal/httpserver"
	"github.com/practicepulse/feestrategy/internal/telemetry"
)

const cacheSurface = "credentialing"

// Handler serves the Credentialing Status Report JSON and CSV endpoints.
type Handler struct {
	engine *credentialing.Engine
	cache  *cache.Cache
	logger *slog.Logger
	ttl    time.Duration
}

// NewHandler constructs a Credentialing Handler.
func NewHandler(engine *credentialing.Engine, c *cache.Cache, logger *slog.Logger, ttl time.Duration) *Handler {
	return &Handler{engine: engine, cache: c, logger: logger, ttl: ttl}
}

// Routes returns the router fragment mounted at /api/credentialing.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.handleStatusJSON)
	r.Get("/export.csv", h.handleExportCSV)
	return r
}

func (h *Handler) handleStatusJSON(w http.ResponseWriter, r *http.Request) {
	f := filter.NormalizeCredentialing(r.URL.Query())
	now := time.Now()
	fp := cache.Fingerprint(cacheSurface, f.CanonicalMap())

	if cached, ok := h.cache.Lookup(fp, now); ok {
		telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface, "hit").Inc()
		w.Header().Set("X-Cache", "HIT")
		httpserver.Respond(w, http.StatusOK, cached)
		return
	}
	telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface, "miss").Inc()

	result, err := h.engine.Run(r.Context(), f)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.cache.Insert(fp, result, now, h.ttl)
	w.Header().Set("X-Cache", "MISS")
	httpserver.Respond(w, http.StatusOK, result)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	f := filter.NormalizeCredentialing(r.URL.Query())
	now := time.Now()
	fp := cache.Fingerprint(cacheSurface+"-csv", f.CanonicalMap())

	var result credentialing.Result
	if cached, ok := h.cache.Lookup(fp, now); ok {
		telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface+"-csv", "hit").Inc()
		w.Header().Set("X-Cache", "HIT")
		result = cached.(credentialing.Result)
	} else {
		telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface+"-csv", "miss").Inc()
		computed, err := h.engine.Run(r.Context(), f)
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.cache.Insert(fp, computed, now, h.ttl)
		w.Header().Set("X-Cache", "MISS")
		result = computed
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="credentialing.csv"`)
	if err := csvexport.WriteCredentialing(w, result.Rows); err != nil {
		h.logger.Error("writing credentialing csv", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		h.logger.Error("unexpected credentialing engine error", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if appErr.Status() == http.StatusInternalServerError {
		h.logger.Error("credentialing engine error", "error", err)
	}
	httpserver.RespondError(w, appErr.Status(), appErr.Message)
}
