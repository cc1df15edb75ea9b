// Package search orchestrates a query end to end: validation,
// normalization and expansion, snapshot lookup, deterministic matching (or
// the store's server-side evaluation), fuzzy fallback, aggregation, response
// caching, and best-effort event logging.
package search

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/senirlioglu/Ara/internal/aggregate"
	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/internal/match"
	"github.com/senirlioglu/Ara/internal/normalize"
	"github.com/senirlioglu/Ara/internal/searchlog"
	"github.com/senirlioglu/Ara/internal/store"
	"github.com/senirlioglu/Ara/internal/tokenize"
	"github.com/senirlioglu/Ara/pkg/config"
	apperrors "github.com/senirlioglu/Ara/pkg/errors"
	"github.com/senirlioglu/Ara/pkg/logger"
	"github.com/senirlioglu/Ara/pkg/metrics"
	"github.com/senirlioglu/Ara/pkg/tracing"
)

// Response is the caller-facing search result.
type Response struct {
	Query       string                   `json:"query"`
	SnapshotKey string                   `json:"snapshot_key"`
	IsFuzzy     bool                     `json:"is_fuzzy"`
	Total       int                      `json:"total"`
	Groups      []aggregate.ProductGroup `json:"groups"`
}

// SnapshotSource is the snapshot cache as seen by the service.
type SnapshotSource interface {
	CurrentKey() string
	Current(ctx context.Context) (*inventory.Snapshot, error)
	Invalidate()
}

// FuzzySearcher is the similarity fallback as seen by the service.
type FuzzySearcher interface {
	Search(ctx context.Context, rawQuery string) (*match.Result, error)
}

// RemoteSearcher is the store's optional server-side normalized search.
// When configured it replaces in-process match evaluation; normalization
// and the negative filter stay client-side.
type RemoteSearcher interface {
	NormalizedSearch(ctx context.Context, query string) ([]inventory.Record, error)
}

// SuggestionSearcher is the store's autocomplete procedure. Normalization
// of the partial query stays client-side.
type SuggestionSearcher interface {
	Autocomplete(ctx context.Context, prefix string, limit int) ([]store.Suggestion, error)
}

// Service owns one search pipeline. Collector, response cache, remote
// searcher, and metrics are all optional; a nil value disables that concern.
type Service struct {
	snapshots SnapshotSource
	norm      *normalize.Normalizer
	expander  *tokenize.Expander
	engine    *match.Engine
	fallback  FuzzySearcher
	remote    RemoteSearcher
	suggest   SuggestionSearcher
	collector *searchlog.Collector
	respCache *ResponseCache
	metrics   *metrics.Metrics
	cfg       config.SearchConfig
	logger    *slog.Logger
}

// New wires a Service.
func New(
	snapshots SnapshotSource,
	norm *normalize.Normalizer,
	expander *tokenize.Expander,
	engine *match.Engine,
	fallback FuzzySearcher,
	remote RemoteSearcher,
	suggest SuggestionSearcher,
	collector *searchlog.Collector,
	respCache *ResponseCache,
	m *metrics.Metrics,
	cfg config.SearchConfig,
) *Service {
	return &Service{
		snapshots: snapshots,
		norm:      norm,
		expander:  expander,
		engine:    engine,
		fallback:  fallback,
		remote:    remote,
		suggest:   suggest,
		collector: collector,
		respCache: respCache,
		metrics:   m,
		cfg:       cfg,
		logger:    slog.Default().With("component", "search-service"),
	}
}

// Search runs the full pipeline for one raw query.
func (s *Service) Search(ctx context.Context, rawQuery string) (*Response, error) {
	start := time.Now()
	trimmed := strings.TrimSpace(rawQuery)
	if utf8.RuneCountInString(trimmed) < s.cfg.MinQueryLength {
		s.countOutcome("rejected")
		return nil, apperrors.Newf(apperrors.ErrQueryTooShort, http.StatusBadRequest,
			"query must be at least %d characters", s.cfg.MinQueryLength)
	}

	normalized := s.norm.Normalize(trimmed)
	key := s.snapshots.CurrentKey()

	if s.respCache != nil {
		if resp, ok := s.respCache.Get(ctx, key, normalized); ok {
			s.countOutcome("cache_hit")
			return resp, nil
		}
	}

	ctx, span := tracing.StartSpan(ctx, "search", logger.RequestID(ctx))
	span.SetAttr("query", trimmed)
	defer func() {
		span.End()
		span.Log()
	}()

	evalPath := "memory"
	result, err := s.evaluate(ctx, trimmed, normalized)
	if err != nil {
		span.SetError(err)
		s.countOutcome("unavailable")
		s.track(ctx, trimmed, normalized, 0, false, true, start)
		if isAppError(err) {
			return nil, err
		}
		return nil, apperrors.Newf(apperrors.ErrSearchUnavailable, http.StatusServiceUnavailable,
			"search failed: %v", err)
	}
	if s.remote != nil {
		evalPath = "server_side"
	}

	// Empty is a valid outcome, but the fallback gets one chance first.
	if len(result.Rows) == 0 && s.fallback != nil &&
		utf8.RuneCountInString(trimmed) >= s.cfg.MinFuzzyLength {
		_, fzSpan := tracing.StartChildSpan(ctx, "fuzzy-fallback")
		fz, ferr := s.fallback.Search(ctx, trimmed)
		fzSpan.SetError(ferr)
		fzSpan.End()
		if ferr != nil {
			// A broken fallback degrades to the empty deterministic
			// result; it never fails the search.
			s.logger.Warn("fuzzy fallback failed", "query", trimmed, "error", ferr)
		} else if len(fz.Rows) > 0 {
			result = fz
			evalPath = "fuzzy"
		}
	}

	groups := aggregate.Group(result)
	resp := &Response{
		Query:       trimmed,
		SnapshotKey: key,
		IsFuzzy:     result.IsFuzzy,
		Total:       len(groups),
		Groups:      groups,
	}

	switch {
	case result.IsFuzzy:
		s.countOutcome("fuzzy")
	case len(groups) == 0:
		s.countOutcome("empty")
	default:
		s.countOutcome("ok")
	}
	if s.metrics != nil {
		s.metrics.SearchLatency.WithLabelValues(evalPath).Observe(time.Since(start).Seconds())
		s.metrics.SearchResultsCount.Observe(float64(len(groups)))
	}
	span.SetAttr("path", evalPath)
	span.SetAttr("groups", len(groups))

	s.track(ctx, trimmed, normalized, len(groups), result.IsFuzzy, false, start)

	if s.respCache != nil {
		s.respCache.Set(ctx, key, normalized, resp)
	}
	return resp, nil
}

const defaultSuggestLimit = 10

// Suggest returns autocomplete candidates for a partial query.
func (s *Service) Suggest(ctx context.Context, partial string, limit int) ([]store.Suggestion, error) {
	if s.suggest == nil {
		return nil, apperrors.New(apperrors.ErrSearchUnavailable, http.StatusServiceUnavailable,
			"autocomplete is not configured")
	}
	trimmed := strings.TrimSpace(partial)
	if utf8.RuneCountInString(trimmed) < s.cfg.MinQueryLength {
		return nil, apperrors.Newf(apperrors.ErrQueryTooShort, http.StatusBadRequest,
			"partial query must be at least %d characters", s.cfg.MinQueryLength)
	}
	normalized := s.norm.Normalize(trimmed)
	if normalized == "" {
		return nil, apperrors.New(apperrors.ErrSearchUnavailable, http.StatusServiceUnavailable,
			"query produced no tokens")
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	return s.suggest.Autocomplete(ctx, normalized, limit)
}

// ForceRefresh evicts all snapshots and cached responses so the next search
// performs a fresh bulk load.
func (s *Service) ForceRefresh(ctx context.Context) {
	s.snapshots.Invalidate()
	if s.respCache != nil {
		s.respCache.Invalidate(ctx)
	}
	s.logger.Info("forced refresh")
}

// evaluate runs either the in-process match or the server-side procedure.
func (s *Service) evaluate(ctx context.Context, trimmed, normalized string) (*match.Result, error) {
	groups := s.expander.Expand(trimmed)

	if s.remote != nil {
		if len(groups) == 0 {
			return nil, apperrors.New(apperrors.ErrSearchUnavailable, http.StatusServiceUnavailable,
				"query produced no tokens")
		}
		rows, err := s.remote.NormalizedSearch(ctx, normalized)
		if err != nil {
			return nil, err
		}
		records := make([]inventory.NormalizedRecord, 0, len(rows))
		for _, r := range rows {
			records = append(records, inventory.NewNormalizedRecord(s.norm, r))
		}
		return &match.Result{Rows: s.engine.Filter(records, groups)}, nil
	}

	snap, err := s.snapshots.Current(ctx)
	if err != nil {
		return nil, err
	}
	_, matchSpan := tracing.StartChildSpan(ctx, "match")
	result, err := s.engine.Match(snap, groups)
	matchSpan.End()
	return result, err
}

func (s *Service) track(ctx context.Context, term, normalized string, resultCount int, isFuzzy, unavailable bool, start time.Time) {
	if s.collector == nil {
		return
	}
	s.collector.Track(searchlog.Event{
		Term:           term,
		NormalizedTerm: normalized,
		ResultCount:    resultCount,
		IsFuzzy:        isFuzzy,
		Unavailable:    unavailable,
		LatencyMs:      time.Since(start).Milliseconds(),
		Timestamp:      time.Now().UTC(),
		RequestID:      logger.RequestID(ctx),
	})
}

func (s *Service) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues(outcome).Inc()
	}
}

func isAppError(err error) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr)
}
