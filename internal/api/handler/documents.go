package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/futbol-tracker/internal/api/respond"
	"github.com/albapepper/futbol-tracker/internal/cache"
	"github.com/albapepper/futbol-tracker/internal/store"
)

const maxKeyLen = 200

// DocumentList is the response shape of ListDocuments.
type DocumentList struct {
	Prefix    string           `json:"prefix"`
	Count     int              `json:"count"`
	Documents []store.Document `json:"documents"`
}

// ListDocuments returns every document whose key starts with prefix.
// @Summary List documents
// @Description Returns stored documents ordered by key. Filter by key prefix, e.g. a category such as "equipo" or "jugador_".
// @Tags documents
// @Produce json
// @Param prefix query string false "Document key prefix"
// @Success 200 {object} DocumentList
// @Failure 400 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	if len(prefix) > maxKeyLen {
		respond.Error(w, http.StatusBadRequest, "INVALID_PREFIX",
			fmt.Sprintf("prefix must be at most %d characters", maxKeyLen))
		return
	}

	ttl := min(h.ttl, cache.TTLListing)
	cacheKey := "list:" + prefix
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		respond.Cached(w, r, data, etag, ttl, true)
		return
	}

	docs, err := h.store.List(r.Context(), prefix)
	if err != nil {
		h.logger.Error("list documents failed", "prefix", prefix, "error", err)
		respond.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Could not read documents")
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}

	data, err := json.Marshal(DocumentList{Prefix: prefix, Count: len(docs), Documents: docs})
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "ENCODE_FAILED", "Could not encode documents", err.Error())
		return
	}
	etag := h.cache.Set(cacheKey, data, ttl)
	respond.Cached(w, r, data, etag, ttl, false)
}

// GetDocument returns one document by key.
// @Summary Get document
// @Description Returns a single stored document, e.g. "equipo_eibar_b" or "clasificacion_indartsu".
// @Tags documents
// @Produce json
// @Param key path string true "Document key"
// @Success 200 {object} store.Document
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /documents/{key} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" || len(key) > maxKeyLen {
		respond.Error(w, http.StatusBadRequest, "INVALID_KEY", "key must be 1-200 characters")
		return
	}

	cacheKey := "doc:" + key
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		respond.Cached(w, r, data, etag, h.ttl, true)
		return
	}

	doc, err := h.store.Get(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("document %q not found", key))
		return
	}
	if err != nil {
		h.logger.Error("get document failed", "key", key, "error", err)
		respond.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Could not read document")
		return
	}

	data, err := json.Marshal(doc)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "ENCODE_FAILED", "Could not encode document", err.Error())
		return
	}
	etag := h.cache.Set(cacheKey, data, h.ttl)
	respond.Cached(w, r, data, etag, h.ttl, false)
}
