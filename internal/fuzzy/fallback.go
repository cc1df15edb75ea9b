// Package fuzzy provides the similarity-search fallback, invoked only when
// deterministic matching finds nothing.
package fuzzy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/internal/match"
	"github.com/senirlioglu/Ara/internal/normalize"
)

// CandidateSearcher is the backing store's similarity-search procedure,
// treated as an opaque ranked-candidate provider.
type CandidateSearcher interface {
	FuzzySearch(ctx context.Context, query string, limit int) ([]inventory.Record, error)
}

// Fallback delegates a no-hit query to the store's similarity search.
type Fallback struct {
	store     CandidateSearcher
	norm      *normalize.Normalizer
	minLength int
	limit     int
	logger    *slog.Logger
}

// New creates a Fallback. Queries shorter than minLength runes are not
// worth a similarity round trip and yield an empty result.
func New(store CandidateSearcher, norm *normalize.Normalizer, minLength, limit int) *Fallback {
	if minLength < 3 {
		minLength = 3
	}
	if limit <= 0 {
		limit = 200
	}
	return &Fallback{
		store:     store,
		norm:      norm,
		minLength: minLength,
		limit:     limit,
		logger:    slog.Default().With("component", "fuzzy-fallback"),
	}
}

// Search normalizes the raw query and asks the store for ranked candidates.
// The result is always flagged fuzzy; it is never merged with deterministic
// rows.
func (f *Fallback) Search(ctx context.Context, rawQuery string) (*match.Result, error) {
	trimmed := strings.TrimSpace(rawQuery)
	if utf8.RuneCountInString(trimmed) < f.minLength {
		return &match.Result{IsFuzzy: true}, nil
	}

	query := f.norm.Normalize(trimmed)
	candidates, err := f.store.FuzzySearch(ctx, query, f.limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search for %q: %w", query, err)
	}

	rows := make([]inventory.NormalizedRecord, 0, len(candidates))
	for _, r := range candidates {
		rows = append(rows, inventory.NewNormalizedRecord(f.norm, r))
	}
	rows = match.Dedup(rows)

	f.logger.Debug("fuzzy search completed", "query", query, "candidates", len(rows))
	return &match.Result{Rows: rows, IsFuzzy: true}, nil
}
