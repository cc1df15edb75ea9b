package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/internal/match"
	"github.com/senirlioglu/Ara/internal/normalize"
	"github.com/senirlioglu/Ara/internal/store"
	"github.com/senirlioglu/Ara/internal/tokenize"
	"github.com/senirlioglu/Ara/pkg/config"
	apperrors "github.com/senirlioglu/Ara/pkg/errors"
)

var (
	svcNorm     = normalize.New(normalize.DefaultTables())
	svcExpander = tokenize.NewExpander(svcNorm, tokenize.DefaultTables(), tokenize.Options{
		Stemming:   true,
		MinRootLen: 3,
	})
)

func svcConfig() config.SearchConfig {
	return config.SearchConfig{
		MinQueryLength: 2,
		MinFuzzyLength: 3,
		FuzzyLimit:     200,
		Stemming:       true,
		MinStemRoot:    3,
	}
}

func svcRecord(store, product, name string, qty int) inventory.NormalizedRecord {
	return inventory.NewNormalizedRecord(svcNorm, inventory.Record{
		StoreCode:   store,
		ProductCode: product,
		ProductName: name,
		Quantity:    qty,
	})
}

type fakeSnapshots struct {
	key         string
	snap        *inventory.Snapshot
	err         error
	invalidated bool
}

func (f *fakeSnapshots) CurrentKey() string { return f.key }

func (f *fakeSnapshots) Current(ctx context.Context) (*inventory.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeSnapshots) Invalidate() { f.invalidated = true }

type fakeFallback struct {
	calls  int
	result *match.Result
	err    error
}

func (f *fakeFallback) Search(ctx context.Context, rawQuery string) (*match.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeRemote struct {
	calls    int
	gotQuery string
	rows     []inventory.Record
	err      error
}

func (f *fakeRemote) NormalizedSearch(ctx context.Context, query string) ([]inventory.Record, error) {
	f.calls++
	f.gotQuery = query
	return f.rows, f.err
}

type fakeSuggester struct {
	gotPrefix   string
	gotLimit    int
	suggestions []store.Suggestion
	err         error
}

func (f *fakeSuggester) Autocomplete(ctx context.Context, prefix string, limit int) ([]store.Suggestion, error) {
	f.gotPrefix = prefix
	f.gotLimit = limit
	return f.suggestions, f.err
}

func newTestService(snaps SnapshotSource, fallback FuzzySearcher, remote RemoteSearcher) *Service {
	return New(
		snaps, svcNorm, svcExpander, match.NewEngine(nil),
		fallback, remote, nil, nil, nil, nil, svcConfig(),
	)
}

func newSuggestService(suggest SuggestionSearcher) *Service {
	return New(
		snapshotOf(), svcNorm, svcExpander, match.NewEngine(nil),
		nil, nil, suggest, nil, nil, nil, svcConfig(),
	)
}

func snapshotOf(records ...inventory.NormalizedRecord) *fakeSnapshots {
	return &fakeSnapshots{
		key: "2026-08-29",
		snap: &inventory.Snapshot{
			Key:      "2026-08-29",
			Records:  records,
			LoadedAt: time.Now(),
		},
	}
}

func TestSearchTooShort(t *testing.T) {
	s := newTestService(snapshotOf(), nil, nil)

	_, err := s.Search(context.Background(), " k ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQueryTooShort)
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
}

func TestSearchDeterministicHit(t *testing.T) {
	snaps := snapshotOf(
		svcRecord("M1", "P1", "WHISKAS KEDİ MAMASI", 5),
		svcRecord("M2", "P1", "WHISKAS KEDİ MAMASI", 0),
		svcRecord("M1", "P2", "KÖPEK TASMASI", 3),
	)
	fallback := &fakeFallback{}
	s := newTestService(snaps, fallback, nil)

	resp, err := s.Search(context.Background(), "kedi maması")
	require.NoError(t, err)
	assert.False(t, resp.IsFuzzy)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "P1", resp.Groups[0].ProductCode)
	assert.Equal(t, 1, resp.Groups[0].StoresWithStock)
	assert.Equal(t, "2026-08-29", resp.SnapshotKey)
	assert.Zero(t, fallback.calls, "fallback must not run when deterministic rows exist")
}

func TestSearchFallbackOnEmpty(t *testing.T) {
	snaps := snapshotOf(svcRecord("M1", "P1", "KEDİ MAMASI", 5))
	fallback := &fakeFallback{result: &match.Result{
		Rows:    []inventory.NormalizedRecord{svcRecord("M1", "P9", "BUZDOLABI", 2)},
		IsFuzzy: true,
	}}
	s := newTestService(snaps, fallback, nil)

	resp, err := s.Search(context.Background(), "buzdolaki")
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.calls)
	assert.True(t, resp.IsFuzzy)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "P9", resp.Groups[0].ProductCode)
}

func TestSearchFallbackSkippedBelowMinLength(t *testing.T) {
	snaps := snapshotOf(svcRecord("M1", "P1", "KEDİ MAMASI", 5))
	fallback := &fakeFallback{result: &match.Result{IsFuzzy: true}}
	s := newTestService(snaps, fallback, nil)

	// Two runes clears the query minimum but not the fuzzy minimum.
	resp, err := s.Search(context.Background(), "zz")
	require.NoError(t, err)
	assert.Zero(t, fallback.calls)
	assert.False(t, resp.IsFuzzy)
	assert.Empty(t, resp.Groups)
}

func TestSearchFallbackFailureDegradesToEmpty(t *testing.T) {
	snaps := snapshotOf(svcRecord("M1", "P1", "KEDİ MAMASI", 5))
	fallback := &fakeFallback{err: errors.New("procedure down")}
	s := newTestService(snaps, fallback, nil)

	resp, err := s.Search(context.Background(), "buzdolaki")
	require.NoError(t, err, "a broken fallback must not fail the search")
	assert.False(t, resp.IsFuzzy)
	assert.Empty(t, resp.Groups)
}

func TestSearchEmptyFuzzyKeepsDeterministicResult(t *testing.T) {
	snaps := snapshotOf(svcRecord("M1", "P1", "KEDİ MAMASI", 5))
	fallback := &fakeFallback{result: &match.Result{IsFuzzy: true}}
	s := newTestService(snaps, fallback, nil)

	resp, err := s.Search(context.Background(), "buzdolaki")
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.calls)
	// An empty fuzzy result must not flip the response to fuzzy.
	assert.False(t, resp.IsFuzzy)
	assert.Empty(t, resp.Groups)
}

func TestSearchArtifactOnlyQueryUnavailable(t *testing.T) {
	snaps := snapshotOf(svcRecord("M1", "P1", "KEDİ MAMASI", 5))
	fallback := &fakeFallback{}
	s := newTestService(snaps, fallback, nil)

	// Two smart quotes pass the length minimum but normalize away; the
	// caller must be able to tell this from a legitimate empty result.
	_, err := s.Search(context.Background(), "’’")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSearchUnavailable)
	assert.Equal(t, 503, apperrors.HTTPStatusCode(err))
	assert.Zero(t, fallback.calls)
}

func TestSearchSnapshotUnavailable(t *testing.T) {
	snaps := &fakeSnapshots{
		key: "2026-08-29",
		err: apperrors.New(apperrors.ErrSnapshotLoad, 503, "store down"),
	}
	fallback := &fakeFallback{}
	s := newTestService(snaps, fallback, nil)

	_, err := s.Search(context.Background(), "kedi")
	require.Error(t, err)
	assert.Equal(t, 503, apperrors.HTTPStatusCode(err))
	assert.Zero(t, fallback.calls, "unavailable search must not fall through to fuzzy")
}

func TestSearchServerSidePath(t *testing.T) {
	snaps := snapshotOf() // key only; the remote path never scans it
	remote := &fakeRemote{rows: []inventory.Record{
		{StoreCode: "M1", ProductCode: "P1", ProductName: "SAMSUNG TV 55", Quantity: 4},
		{StoreCode: "M1", ProductCode: "P2", ProductName: "TV KUMANDASI", Quantity: 9},
	}}
	s := newTestService(snaps, nil, remote)

	resp, err := s.Search(context.Background(), "TV")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, "tv", remote.gotQuery, "remote procedure receives the normalized query")
	// The negative filter still applies on top of server-side rows.
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "P1", resp.Groups[0].ProductCode)
}

func TestSuggestNormalizesPartialQuery(t *testing.T) {
	suggester := &fakeSuggester{suggestions: []store.Suggestion{
		{Text: "televizyon", ProductCount: 42},
	}}
	s := newSuggestService(suggester)

	suggestions, err := s.Suggest(context.Background(), "  TELVİZY  ", 5)
	require.NoError(t, err)
	assert.Equal(t, "telvizy", suggester.gotPrefix, "store receives the normalized partial")
	assert.Equal(t, 5, suggester.gotLimit)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "televizyon", suggestions[0].Text)
}

func TestSuggestDefaultsLimit(t *testing.T) {
	suggester := &fakeSuggester{}
	s := newSuggestService(suggester)

	_, err := s.Suggest(context.Background(), "kedi", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultSuggestLimit, suggester.gotLimit)
}

func TestSuggestTooShort(t *testing.T) {
	s := newSuggestService(&fakeSuggester{})

	_, err := s.Suggest(context.Background(), "k", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQueryTooShort)
}

func TestSuggestUnconfigured(t *testing.T) {
	s := newTestService(snapshotOf(), nil, nil)

	_, err := s.Suggest(context.Background(), "kedi", 10)
	require.Error(t, err)
	assert.Equal(t, 503, apperrors.HTTPStatusCode(err))
}

func TestForceRefresh(t *testing.T) {
	snaps := snapshotOf(svcRecord("M1", "P1", "KEDİ MAMASI", 5))
	s := newTestService(snaps, nil, nil)

	s.ForceRefresh(context.Background())
	assert.True(t, snaps.invalidated)
}
