// Package feestrategy implements the HTTP surface for the Fee-Strategy
// Pivot: JSON and CSV endpoints backed by a shared response cache.
package feestrategy

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/practicepulse/feestrategy/internal/apperr"
	"github.com/practicepulse/feestrategy/internal/cache"
	"github.com/practicepulse/feestrategy/internal/csvexport"
	"github.com/practicepulse/feestrategy/internal/filter"
	"github.com/practicepulse/feestrategy/internal/httpserver"
	"github.com/practicepulse/feestrategy/internal/pivot"
	"github.com/practicepulse/feestrategy/internal/telemetry"
)

const cacheSurface = "pivot"

// Handler serves the Fee-Strategy Pivot JSON and CSV endpoints.
type Handler struct {
	engine *pivot.Engine
	cache  *cache.Cache
	logger *slog.Logger
	ttl    time.Duration
}

// NewHandler constructs a Fee-Strategy Pivot Handler.
func NewHandler(engine *pivot.Engine, c *cache.Cache, logger *slog.Logger, ttl time.Duration) *Handler {
	return &Handler{engine: engine, cache: c, logger: logger, ttl: ttl}
}

// Routes returns the router fragment mounted at /api/fee-strategy.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/pivot", h.handlePivotJSON)
	r.Get("/pivot.csv", h.handlePivotCSV)
	return r
}

// RedirectPivotData is a legacy route: a 302 redirect to the canonical
// JSON endpoint, preserving the query string for re-normalization by the
// target handler.
func RedirectPivotData(w http.ResponseWriter, r *http.Request) {
	target := "/api/fee-strategy/pivot"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) handlePivotJSON(w http.ResponseWriter, r *http.Request) {
	f := filter.NormalizePivot(r.URL.Query())
	now := time.Now()
	fp := cache.Fingerprint(cacheSurface, f.CanonicalMap())

	if cached, ok := h.cache.Lookup(fp, now); ok {
		telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface, "hit").Inc()
		w.Header().Set("X-Cache", "HIT")
		httpserver.Respond(w, http.StatusOK, cached)
		return
	}
	telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface, "miss").Inc()

	full, err := h.engine.Run(r.Context(), f)
	if err != nil {
		h.respondError(w, err)
		return
	}

	paginated := pivot.Paginate(full, f.Page, f.Limit)
	h.cache.Insert(fp, paginated, now, h.ttl)
	w.Header().Set("X-Cache", "MISS")
	httpserver.Respond(w, http.StatusOK, paginated)
}

func (h *Handler) handlePivotCSV(w http.ResponseWriter, r *http.Request) {
	f := filter.NormalizePivot(r.URL.Query())
	// CSV ignores pagination, so page/limit are zeroed before
	// fingerprinting: CSV requests that differ only in page/limit share one
	// cache entry. The "-csv" surface keeps CSV entries apart from JSON ones.
	unpaginated := f
	unpaginated.Page = 0
	unpaginated.Limit = 0
	now := time.Now()
	fp := cache.Fingerprint(cacheSurface+"-csv", unpaginated.CanonicalMap())

	var result pivot.Result
	if cached, ok := h.cache.Lookup(fp, now); ok {
		telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface+"-csv", "hit").Inc()
		w.Header().Set("X-Cache", "HIT")
		result = cached.(pivot.Result)
	} else {
		telemetry.CacheLookupsTotal.WithLabelValues(cacheSurface+"-csv", "miss").Inc()
		full, err := h.engine.Run(r.Context(), f)
		if err != nil {
			h.respondError(w, err)
			return
		}
		h.cache.Insert(fp, full, now, h.ttl)
		w.Header().Set("X-Cache", "MISS")
		result = full
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pivot.csv"`)
	if err := csvexport.WritePivot(w, result.Rows); err != nil {
		h.logger.Error("writing pivot csv", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		h.logger.Error("unexpected pivot engine error", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if appErr.Status() == http.StatusInternalServerError {
		h.logger.Error("pivot engine error", "error", err)
	}
	httpserver.RespondError(w, appErr.Status(), appErr.Message)
}
