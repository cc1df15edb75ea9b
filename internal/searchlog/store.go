package searchlog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/senirlioglu/Ara/pkg/kafka"
	"github.com/senirlioglu/Ara/pkg/postgres"
)

// Store persists aggregated search counts in PostgreSQL.
//
// It requires a `search_log` table:
//
//	CREATE TABLE search_log (
//	    log_date          DATE NOT NULL,
//	    term              TEXT NOT NULL,
//	    search_count      INT  NOT NULL DEFAULT 0,
//	    last_result_count INT  NOT NULL DEFAULT 0,
//	    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (log_date, term)
//	);
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a search-log store.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "searchlog-store"),
	}
}

// Record upserts the (date, term) counter for one event.
func (s *Store) Record(ctx context.Context, event Event) error {
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO search_log (log_date, term, search_count, last_result_count, updated_at)
		VALUES ($1::date, $2, 1, $3, NOW())
		ON CONFLICT (log_date, term) DO UPDATE
		SET search_count      = search_log.search_count + 1,
		    last_result_count = EXCLUDED.last_result_count,
		    updated_at        = NOW()`,
		event.Timestamp.Format("2006-01-02"), event.NormalizedTerm, event.ResultCount,
	)
	if err != nil {
		return fmt.Errorf("upserting search log row: %w", err)
	}
	return nil
}

// Recent returns the last N days of aggregated rows, newest date first and
// most-searched terms first within a day.
func (s *Store) Recent(ctx context.Context, days int) ([]LogRow, error) {
	if days <= 0 {
		days = 7
	}
	rows, err := s.db.DB.QueryContext(ctx, `
		SELECT log_date::text, term, search_count, last_result_count, updated_at
		FROM search_log
		WHERE log_date >= CURRENT_DATE - $1::int
		ORDER BY log_date DESC, search_count DESC`,
		days,
	)
	if err != nil {
		return nil, fmt.Errorf("querying search log: %w", err)
	}
	defer rows.Close()

	var result []LogRow
	for rows.Next() {
		var row LogRow
		if err := rows.Scan(&row.LogDate, &row.Term, &row.SearchCount, &row.LastResultCount, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning search log row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// HandleEvent returns a Kafka message handler that records each event.
// Decode and write errors are reported to the consumer, which logs and
// skips; a broken event never stalls the pipeline.
func HandleEvent(store *Store) kafka.MessageHandler {
	return func(ctx context.Context, key, value []byte) error {
		event, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			return err
		}
		return store.Record(ctx, event)
	}
}
