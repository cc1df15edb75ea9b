// Package handler exposes the search service over HTTP.
package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/senirlioglu/Ara/internal/search"
	"github.com/senirlioglu/Ara/internal/searchlog"
	"github.com/senirlioglu/Ara/internal/store"
	apperrors "github.com/senirlioglu/Ara/pkg/errors"
	"github.com/senirlioglu/Ara/pkg/logger"
)

// Searcher is the search service as seen by the HTTP layer.
type Searcher interface {
	Search(ctx context.Context, rawQuery string) (*search.Response, error)
	Suggest(ctx context.Context, partial string, limit int) ([]store.Suggestion, error)
	ForceRefresh(ctx context.Context)
}

// AnalyticsSource reads aggregated search-log rows.
type AnalyticsSource interface {
	Recent(ctx context.Context, days int) ([]searchlog.LogRow, error)
}

type Handler struct {
	service     Searcher
	analytics   AnalyticsSource
	adminSecret string
	modes       map[string]http.HandlerFunc
	logger      *slog.Logger
}

func New(service Searcher, analytics AnalyticsSource, adminSecret string) *Handler {
	h := &Handler{
		service:     service,
		analytics:   analytics,
		adminSecret: adminSecret,
		logger:      slog.Default().With("component", "http-handler"),
	}
	// The two application modes are resolved exactly once, here at the
	// request boundary, through an explicit table.
	h.modes = map[string]http.HandlerFunc{
		"search": h.Search,
		"admin":  h.Analytics,
	}
	return h
}

// Dispatch routes a request to its application mode. An absent mode means
// search; an unknown mode is a client error.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "search"
	}
	serve, ok := h.modes[mode]
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown mode: "+mode)
		return
	}
	serve(w, r)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	resp, err := h.service.Search(ctx, query)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("search failed", "query", query, "error", err)
		} else {
			log.Warn("search rejected", "query", query, "error", err)
		}
		h.writeError(w, status, errorMessage(err))
		return
	}

	log.Info("search completed",
		"query", query,
		"groups", resp.Total,
		"is_fuzzy", resp.IsFuzzy,
		"snapshot_key", resp.SnapshotKey,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

const maxSuggestLimit = 50

// Autocomplete returns suggestion candidates for a partial query.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	partial := r.URL.Query().Get("q")
	if partial == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > maxSuggestLimit {
			parsed = maxSuggestLimit
		}
		limit = parsed
	}

	suggestions, err := h.service.Suggest(ctx, partial, limit)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("autocomplete failed", "partial", partial, "error", err)
		}
		h.writeError(w, status, errorMessage(err))
		return
	}
	if suggestions == nil {
		suggestions = []store.Suggestion{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// Refresh drops the resident snapshots and cached responses so the next
// search reloads from the store.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.service.ForceRefresh(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// Analytics returns recent aggregated search-log rows. It is guarded by the
// shared admin secret in the X-Admin-Secret header.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	if h.adminSecret == "" || h.analytics == nil {
		h.writeError(w, http.StatusServiceUnavailable, "analytics is disabled")
		return
	}
	secret := r.Header.Get("X-Admin-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(h.adminSecret)) != 1 {
		h.writeError(w, http.StatusUnauthorized, "invalid admin secret")
		return
	}

	days := 7
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	rows, err := h.analytics.Recent(r.Context(), days)
	if err != nil {
		h.logger.Error("analytics query failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "analytics query failed")
		return
	}
	if rows == nil {
		rows = []searchlog.LogRow{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"days": days,
		"rows": rows,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "search failed"
}
