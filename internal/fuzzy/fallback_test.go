package fuzzy

import (
	"context"
	"errors"
	"testing"

	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/internal/normalize"
)

var testNorm = normalize.New(normalize.DefaultTables())

type fakeSearcher struct {
	gotQuery string
	gotLimit int
	rows     []inventory.Record
	err      error
}

func (f *fakeSearcher) FuzzySearch(ctx context.Context, query string, limit int) ([]inventory.Record, error) {
	f.gotQuery = query
	f.gotLimit = limit
	return f.rows, f.err
}

func TestSearchFlagsResultFuzzy(t *testing.T) {
	searcher := &fakeSearcher{rows: []inventory.Record{
		{StoreCode: "M1", ProductCode: "P1", ProductName: "BUZDOLABI"},
	}}
	f := New(searcher, testNorm, 3, 200)

	result, err := f.Search(context.Background(), "buzdolobi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsFuzzy {
		t.Error("fallback result must be flagged fuzzy")
	}
	if len(result.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(result.Rows))
	}
}

func TestSearchNormalizesBeforeQuerying(t *testing.T) {
	searcher := &fakeSearcher{}
	f := New(searcher, testNorm, 3, 150)

	if _, err := f.Search(context.Background(), "  BUZDOLOBİ  "); err != nil {
		t.Fatal(err)
	}
	// The misspelling dictionary applies before the store sees the query.
	if searcher.gotQuery != "buzdolabi" {
		t.Errorf("store saw %q, want normalized query", searcher.gotQuery)
	}
	if searcher.gotLimit != 150 {
		t.Errorf("limit = %d, want 150", searcher.gotLimit)
	}
}

func TestSearchShortQuerySkipsRoundTrip(t *testing.T) {
	searcher := &fakeSearcher{rows: []inventory.Record{{StoreCode: "M1", ProductCode: "P1"}}}
	f := New(searcher, testNorm, 3, 200)

	result, err := f.Search(context.Background(), "ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Error("short query must not produce rows")
	}
	if !result.IsFuzzy {
		t.Error("empty short-query result is still a fuzzy result")
	}
	if searcher.gotQuery != "" {
		t.Error("short query must not reach the store")
	}
}

func TestSearchDedupsCandidates(t *testing.T) {
	searcher := &fakeSearcher{rows: []inventory.Record{
		{StoreCode: "M1", ProductCode: "P1", ProductName: "A", Quantity: 5},
		{StoreCode: "M1", ProductCode: "P1", ProductName: "A", Quantity: 9},
		{StoreCode: "M2", ProductCode: "P1", ProductName: "A", Quantity: 2},
	}}
	f := New(searcher, testNorm, 3, 200)

	result, err := f.Search(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Rows) != 2 {
		t.Errorf("expected 2 rows after dedup, got %d", len(result.Rows))
	}
	if result.Rows[0].Quantity != 5 {
		t.Error("dedup must keep the first-ranked candidate")
	}
}

func TestSearchPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("procedure timeout")
	f := New(&fakeSearcher{err: storeErr}, testNorm, 3, 200)

	_, err := f.Search(context.Background(), "abc")
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}
