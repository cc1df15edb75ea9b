package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/senirlioglu/Ara/internal/search"
	"github.com/senirlioglu/Ara/internal/searchlog"
	"github.com/senirlioglu/Ara/internal/store"
	apperrors "github.com/senirlioglu/Ara/pkg/errors"
)

type fakeService struct {
	resp        *search.Response
	suggestions []store.Suggestion
	err         error
	gotQuery    string
	gotLimit    int
	refreshed   bool
}

func (f *fakeService) Search(ctx context.Context, rawQuery string) (*search.Response, error) {
	f.gotQuery = rawQuery
	return f.resp, f.err
}

func (f *fakeService) Suggest(ctx context.Context, partial string, limit int) ([]store.Suggestion, error) {
	f.gotQuery = partial
	f.gotLimit = limit
	return f.suggestions, f.err
}

func (f *fakeService) ForceRefresh(ctx context.Context) { f.refreshed = true }

type fakeAnalytics struct {
	rows    []searchlog.LogRow
	err     error
	gotDays int
}

func (f *fakeAnalytics) Recent(ctx context.Context, days int) ([]searchlog.LogRow, error) {
	f.gotDays = days
	return f.rows, f.err
}

func okResponse() *search.Response {
	return &search.Response{
		Query:       "kedi",
		SnapshotKey: "2026-08-29",
		Total:       0,
		Groups:      nil,
	}
}

func TestSearchReturnsResponse(t *testing.T) {
	service := &fakeService{resp: okResponse()}
	h := New(service, nil, "")

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=kedi", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if service.gotQuery != "kedi" {
		t.Errorf("service saw query %q", service.gotQuery)
	}
	var resp search.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.SnapshotKey != "2026-08-29" {
		t.Errorf("snapshot key = %q", resp.SnapshotKey)
	}
}

func TestSearchMissingQueryParam(t *testing.T) {
	h := New(&fakeService{}, nil, "")

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchMapsAppErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"too short",
			apperrors.New(apperrors.ErrQueryTooShort, http.StatusBadRequest, "query must be at least 2 characters"),
			http.StatusBadRequest,
		},
		{
			"unavailable",
			apperrors.New(apperrors.ErrSearchUnavailable, http.StatusServiceUnavailable, "no snapshot loaded"),
			http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeService{err: tt.err}, nil, "")
			rec := httptest.NewRecorder()
			h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=x", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON error body: %v", err)
			}
			if body["error"] == "" {
				t.Error("error body must carry a message")
			}
		})
	}
}

func TestAutocompleteReturnsSuggestions(t *testing.T) {
	service := &fakeService{suggestions: []store.Suggestion{
		{Text: "kedi mamasi", ProductCount: 42},
		{Text: "kedi kumu", ProductCount: 17},
	}}
	h := New(service, nil, "")

	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/v1/autocomplete?q=kedi&limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if service.gotQuery != "kedi" || service.gotLimit != 5 {
		t.Errorf("service saw partial=%q limit=%d", service.gotQuery, service.gotLimit)
	}
	var body struct {
		Suggestions []store.Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(body.Suggestions) != 2 || body.Suggestions[0].Text != "kedi mamasi" {
		t.Errorf("suggestions = %+v", body.Suggestions)
	}
}

func TestAutocompleteMissingQueryParam(t *testing.T) {
	h := New(&fakeService{}, nil, "")

	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/v1/autocomplete", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAutocompleteLimitValidation(t *testing.T) {
	service := &fakeService{}
	h := New(service, nil, "")

	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/v1/autocomplete?q=kedi&limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", rec.Code)
	}

	// Oversized limits are capped rather than rejected.
	rec = httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/v1/autocomplete?q=kedi&limit=999", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("capped limit: status = %d, want 200", rec.Code)
	}
	if service.gotLimit != maxSuggestLimit {
		t.Errorf("limit = %d, want %d", service.gotLimit, maxSuggestLimit)
	}
}

func TestAutocompleteEmptyResultIsEmptyArray(t *testing.T) {
	h := New(&fakeService{}, nil, "")

	rec := httptest.NewRecorder()
	h.Autocomplete(rec, httptest.NewRequest(http.MethodGet, "/api/v1/autocomplete?q=kedi", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if string(body["suggestions"]) != "[]" {
		t.Errorf("suggestions = %s, want []", body["suggestions"])
	}
}

func TestRefresh(t *testing.T) {
	service := &fakeService{}
	h := New(service, nil, "")

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !service.refreshed {
		t.Error("refresh endpoint must invalidate the cache")
	}
}

func TestRefreshRejectsGet(t *testing.T) {
	service := &fakeService{}
	h := New(service, nil, "")

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodGet, "/api/v1/refresh", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if service.refreshed {
		t.Error("GET must not trigger a refresh")
	}
}

func TestAnalyticsRequiresSecret(t *testing.T) {
	analytics := &fakeAnalytics{}
	h := New(&fakeService{}, analytics, "s3cret")

	rec := httptest.NewRecorder()
	h.Analytics(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing secret: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil)
	req.Header.Set("X-Admin-Secret", "wrong")
	h.Analytics(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: status = %d, want 401", rec.Code)
	}
}

func TestAnalyticsReturnsRows(t *testing.T) {
	analytics := &fakeAnalytics{rows: []searchlog.LogRow{
		{LogDate: "2026-08-29", Term: "kedi mama", SearchCount: 12},
	}}
	h := New(&fakeService{}, analytics, "s3cret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics?days=3", nil)
	req.Header.Set("X-Admin-Secret", "s3cret")
	h.Analytics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if analytics.gotDays != 3 {
		t.Errorf("days = %d, want 3", analytics.gotDays)
	}
}

func TestAnalyticsDisabledWithoutSecret(t *testing.T) {
	h := New(&fakeService{}, &fakeAnalytics{}, "")

	rec := httptest.NewRecorder()
	h.Analytics(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestDispatchTable(t *testing.T) {
	service := &fakeService{resp: okResponse()}
	analytics := &fakeAnalytics{}
	h := New(service, analytics, "s3cret")

	// Default mode is search.
	rec := httptest.NewRecorder()
	h.Dispatch(rec, httptest.NewRequest(http.MethodGet, "/api/v1/query?q=kedi", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("default mode: status = %d, want 200", rec.Code)
	}

	// Admin mode routes to analytics (and hits its guard).
	rec = httptest.NewRecorder()
	h.Dispatch(rec, httptest.NewRequest(http.MethodGet, "/api/v1/query?mode=admin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("admin mode: status = %d, want 401", rec.Code)
	}

	// Unknown mode is a client error.
	rec = httptest.NewRecorder()
	h.Dispatch(rec, httptest.NewRequest(http.MethodGet, "/api/v1/query?mode=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown mode: status = %d, want 400", rec.Code)
	}
}
