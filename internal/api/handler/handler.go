// Package handler provides HTTP handlers for all API endpoints.
// Handlers read the document store directly; there is no service layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/futbol-tracker/internal/api/respond"
	"github.com/albapepper/futbol-tracker/internal/cache"
	"github.com/albapepper/futbol-tracker/internal/config"
	"github.com/albapepper/futbol-tracker/internal/store"
)

// Version is reported at / and in the OpenAPI document.
const Version = "1.0.0"

const healthTimeout = 3 * time.Second

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  store.Store
	cache  *cache.Cache
	cfg    *config.Config
	logger *slog.Logger
	ttl    time.Duration
}

// New creates a Handler with shared dependencies.
func New(st store.Store, c *cache.Cache, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.TTLDocument
	}
	return &Handler{store: st, cache: c, cfg: cfg, logger: logger, ttl: ttl}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the store backend in use.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"name":       "Futbol Tracker API",
		"version":    Version,
		"status":     "running",
		"docs":       "/docs",
		"store":      h.cfg.StoreBackend,
		"collection": h.cfg.Collection,
		"categories": []string{"equipo", "lista_partidos", "clasificacion", "jugador"},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckStore verifies the document store is reachable.
// @Summary Store health check
// @Description Pings the configured document store (Postgres or Badger).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/store [get]
func (h *Handler) HealthCheckStore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("store health check failed", "error", err)
		respond.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"store":     h.cfg.StoreBackend,
			"error":     "Store connectivity check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"store":     h.cfg.StoreBackend,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (keys, hits, misses).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
