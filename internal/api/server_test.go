package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/futbol-tracker/internal/api"
	"github.com/albapepper/futbol-tracker/internal/api/handler"
	"github.com/albapepper/futbol-tracker/internal/api/respond"
	"github.com/albapepper/futbol-tracker/internal/cache"
	"github.com/albapepper/futbol-tracker/internal/config"
	"github.com/albapepper/futbol-tracker/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		StoreBackend:     config.StoreBadger,
		Collection:       config.DefaultCollection,
		CORSAllowOrigins: []string{"*"},
		CacheEnabled:     true,
		CacheTTL:         time.Minute,
	}
}

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	st := store.NewMemory()
	b := st.Batch()
	b.Set("equipo_eibar_b", map[string]any{"nombre": "Eibar B", "ultimo": map[string]any{"resultado": "2-1"}})
	b.Set("equipo_cd_derio", map[string]any{"nombre": "CD Derio"})
	b.Set("jugador_ekain", map[string]any{"nombre": "Ekain", "PJ": 5})
	require.NoError(t, b.Commit(context.Background()))
	return st
}

func newServer(t *testing.T, st store.Store, cfg *config.Config) http.Handler {
	t.Helper()
	c := cache.New(cfg.CacheEnabled)
	t.Cleanup(c.Close)
	return api.NewRouter(st, c, cfg, nil)
}

func get(t *testing.T, h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	srv := newServer(t, seeded(t), testConfig())

	rec := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	var root map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, handler.Version, root["version"])
	assert.Equal(t, config.DefaultCollection, root["collection"])

	for _, path := range []string{"/health", "/health/store", "/health/cache"} {
		rec := get(t, srv, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Process-Time"), path)
	}
}

type downStore struct{ store.Store }

func (downStore) Ping(context.Context) error { return assert.AnError }

func TestHealthStoreUnavailable(t *testing.T) {
	srv := newServer(t, downStore{store.NewMemory()}, testConfig())
	rec := get(t, srv, "/health/store")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
}

func TestGetDocument(t *testing.T) {
	srv := newServer(t, seeded(t), testConfig())

	rec := get(t, srv, "/api/v1/documents/equipo_eibar_b")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var doc store.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "equipo_eibar_b", doc.Key)
	assert.Equal(t, "Eibar B", doc.Fields["nombre"])

	rec = get(t, srv, "/api/v1/documents/equipo_eibar_b")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	rec = get(t, srv, "/api/v1/documents/equipo_eibar_b", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestGetDocumentNotFound(t *testing.T) {
	srv := newServer(t, seeded(t), testConfig())

	rec := get(t, srv, "/api/v1/documents/equipo_nadie")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp respond.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestListDocumentsByPrefix(t *testing.T) {
	srv := newServer(t, seeded(t), testConfig())

	rec := get(t, srv, "/api/v1/documents?prefix=equipo")
	require.Equal(t, http.StatusOK, rec.Code)
	var list handler.DocumentList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Documents, 2)
	assert.Equal(t, "equipo_cd_derio", list.Documents[0].Key)
	assert.Equal(t, "equipo_eibar_b", list.Documents[1].Key)

	rec = get(t, srv, "/api/v1/documents?prefix=clasificacion")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Documents)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Hour
	srv := newServer(t, seeded(t), cfg)

	// burst is half the window allowance
	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
