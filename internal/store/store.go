// Package store implements the backing-store boundary against PostgreSQL:
// the range-paginated read of the daily inventory table and the two remote
// procedures (fuzzy similarity search and server-side normalized search).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/pkg/postgres"
	"github.com/senirlioglu/Ara/pkg/resilience"
)

const (
	pageQuery = `
		SELECT store_code, store_name, region_code, district_code,
		       product_code, product_name, COALESCE(attribute, ''),
		       quantity, unit_price, latitude, longitude
		FROM daily_stock
		ORDER BY store_code, product_code
		OFFSET $1 LIMIT $2`

	fuzzyQuery = `
		SELECT store_code, store_name, region_code, district_code,
		       product_code, product_name, COALESCE(attribute, ''),
		       quantity, unit_price, latitude, longitude
		FROM fuzzy_product_search($1, $2)`

	normalizedQuery = `
		SELECT store_code, store_name, region_code, district_code,
		       product_code, product_name, COALESCE(attribute, ''),
		       quantity, unit_price, latitude, longitude
		FROM normalized_product_search($1)`

	autocompleteQuery = `
		SELECT suggestion, product_count
		FROM autocomplete_products($1, $2)`
)

// Suggestion is one autocomplete candidate with the number of products it
// would match.
type Suggestion struct {
	Text         string `json:"suggestion"`
	ProductCount int    `json:"product_count"`
}

// Store reads inventory rows from PostgreSQL. The remote procedures are
// guarded by a circuit breaker so a dead store fails fast, and by a call
// timeout.
type Store struct {
	db         *postgres.Client
	breaker    *resilience.CircuitBreaker
	rpcTimeout time.Duration
	logger     *slog.Logger
}

// New creates a Store around an open client.
func New(db *postgres.Client) *Store {
	return &Store{
		db:         db,
		breaker:    resilience.NewCircuitBreaker("inventory-store", resilience.CircuitBreakerConfig{}),
		rpcTimeout: 10 * time.Second,
		logger:     slog.Default().With("component", "inventory-store"),
	}
}

// Breaker exposes the circuit breaker for metrics wiring.
func (s *Store) Breaker() *resilience.CircuitBreaker {
	return s.breaker
}

// FetchPage reads one page of the daily inventory table.
func (s *Store) FetchPage(ctx context.Context, offset, limit int) ([]inventory.Record, error) {
	rows, err := s.db.DB.QueryContext(ctx, pageQuery, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("querying inventory page at offset %d: %w", offset, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// FuzzySearch calls the store's similarity-search procedure with a
// normalized query, returning ranked candidate rows.
func (s *Store) FuzzySearch(ctx context.Context, query string, limit int) ([]inventory.Record, error) {
	var records []inventory.Record
	err := s.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, s.rpcTimeout, "fuzzy-search", func(ctx context.Context) error {
			rows, err := s.db.DB.QueryContext(ctx, fuzzyQuery, query, limit)
			if err != nil {
				return fmt.Errorf("calling fuzzy_product_search: %w", err)
			}
			defer rows.Close()
			records, err = scanRecords(rows)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// NormalizedSearch calls the store's server-side normalized search
// procedure, returning matched rows directly in the store's rank order.
func (s *Store) NormalizedSearch(ctx context.Context, query string) ([]inventory.Record, error) {
	var records []inventory.Record
	err := s.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, s.rpcTimeout, "normalized-search", func(ctx context.Context) error {
			rows, err := s.db.DB.QueryContext(ctx, normalizedQuery, query)
			if err != nil {
				return fmt.Errorf("calling normalized_product_search: %w", err)
			}
			defer rows.Close()
			records, err = scanRecords(rows)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Autocomplete calls the store's suggestion procedure with a normalized
// partial query, returning ranked suggestions.
func (s *Store) Autocomplete(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	var suggestions []Suggestion
	err := s.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, s.rpcTimeout, "autocomplete", func(ctx context.Context) error {
			rows, err := s.db.DB.QueryContext(ctx, autocompleteQuery, prefix, limit)
			if err != nil {
				return fmt.Errorf("calling autocomplete_products: %w", err)
			}
			defer rows.Close()
			for rows.Next() {
				var sg Suggestion
				if err := rows.Scan(&sg.Text, &sg.ProductCount); err != nil {
					return fmt.Errorf("scanning suggestion row: %w", err)
				}
				suggestions = append(suggestions, sg)
			}
			return rows.Err()
		})
	})
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

func scanRecords(rows *sql.Rows) ([]inventory.Record, error) {
	var records []inventory.Record
	for rows.Next() {
		var r inventory.Record
		var price, lat, lon sql.NullFloat64
		if err := rows.Scan(
			&r.StoreCode, &r.StoreName, &r.RegionCode, &r.DistrictCode,
			&r.ProductCode, &r.ProductName, &r.Attribute,
			&r.Quantity, &price, &lat, &lon,
		); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		if price.Valid {
			v := price.Float64
			r.UnitPrice = &v
		}
		if lat.Valid && lon.Valid {
			la, lo := lat.Float64, lon.Float64
			r.Latitude = &la
			r.Longitude = &lo
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
