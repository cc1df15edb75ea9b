// Package snapshot owns the in-memory inventory working set: the daily
// cutover cache key, the paginated bulk load with bounded retries, and the
// bounded retention of dated snapshots.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/internal/normalize"
	"github.com/senirlioglu/Ara/pkg/config"
	apperrors "github.com/senirlioglu/Ara/pkg/errors"
	"github.com/senirlioglu/Ara/pkg/metrics"
	"github.com/senirlioglu/Ara/pkg/resilience"
)

const keyFormat = "2006-01-02"

// PageFetcher is the backing store's range-paginated read. A returned page
// shorter than limit signals end of data.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset, limit int) ([]inventory.Record, error)
}

// Cache holds at most cfg.Retention dated snapshots. Reads of a published
// snapshot are lock-free for callers; loading a missing key is serialized
// per key through singleflight so concurrent cache misses never trigger
// duplicate bulk pulls.
type Cache struct {
	fetcher PageFetcher
	norm    *normalize.Normalizer
	cfg     config.SnapshotConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	snaps map[string]*inventory.Snapshot
	order []string // insertion order, oldest first

	group singleflight.Group
}

// New creates a Cache. The metrics argument may be nil.
func New(fetcher PageFetcher, norm *normalize.Normalizer, cfg config.SnapshotConfig, m *metrics.Metrics) *Cache {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20000
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 2
	}
	return &Cache{
		fetcher: fetcher,
		norm:    norm,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "snapshot-cache"),
		now:     time.Now,
		snaps:   make(map[string]*inventory.Snapshot),
	}
}

// CurrentKey returns the date identifier of the authoritative snapshot.
// Before the cutover hour the previous day's bulk load is still the freshest
// data available, so the key is yesterday's date; at or after cutover it is
// today's.
func (c *Cache) CurrentKey() string {
	now := c.now()
	if now.Hour() < c.cfg.CutoverHour {
		return now.AddDate(0, 0, -1).Format(keyFormat)
	}
	return now.Format(keyFormat)
}

// Current returns the snapshot for the current key, loading it if needed.
func (c *Cache) Current(ctx context.Context) (*inventory.Snapshot, error) {
	return c.Get(ctx, c.CurrentKey())
}

// Get returns the snapshot for key, performing the paginated bulk load on a
// miss. Callers must treat a miss as potentially multi-second latency.
func (c *Cache) Get(ctx context.Context, key string) (*inventory.Snapshot, error) {
	c.mu.RLock()
	snap, ok := c.snaps[key]
	c.mu.RUnlock()
	if ok {
		return snap, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		snap, ok := c.snaps[key]
		c.mu.RUnlock()
		if ok {
			return snap, nil
		}
		loaded, err := c.load(ctx, key)
		if err != nil {
			return nil, err
		}
		c.insert(loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*inventory.Snapshot), nil
}

// Invalidate evicts all snapshots, forcing a reload on the next access.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	evicted := len(c.snaps)
	c.snaps = make(map[string]*inventory.Snapshot)
	c.order = nil
	c.mu.Unlock()
	c.logger.Info("cache invalidated", "snapshots_evicted", evicted)
}

// Keys returns the cached snapshot keys, oldest first.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

// load pulls the full inventory table in fixed-size batches. Each batch is
// retried up to the ceiling with a fixed delay before the whole load fails;
// a short pause between batches respects the store's rate limits.
func (c *Cache) load(ctx context.Context, key string) (*inventory.Snapshot, error) {
	start := c.now()
	c.logger.Info("snapshot load started", "key", key, "batch_size", c.cfg.BatchSize)

	var rows []inventory.Record
	for offset := 0; ; offset += c.cfg.BatchSize {
		var page []inventory.Record
		err := resilience.Retry(ctx, "snapshot-page", resilience.RetryConfig{
			MaxAttempts: c.cfg.LoadRetries,
			Delay:       c.cfg.RetryDelay,
		}, func() error {
			var fetchErr error
			page, fetchErr = c.fetcher.FetchPage(ctx, offset, c.cfg.BatchSize)
			return fetchErr
		})
		if err != nil {
			if c.metrics != nil {
				c.metrics.SnapshotLoadsTotal.WithLabelValues("error").Inc()
			}
			return nil, apperrors.Newf(apperrors.ErrSnapshotLoad, 503,
				"loading inventory page at offset %d: %v", offset, err)
		}

		rows = append(rows, page...)
		if len(page) < c.cfg.BatchSize {
			break
		}

		if c.cfg.BatchPause > 0 {
			select {
			case <-time.After(c.cfg.BatchPause):
			case <-ctx.Done():
				return nil, fmt.Errorf("snapshot load cancelled: %w", ctx.Err())
			}
		}
	}

	records := c.normalizeAndDedup(rows)
	snap := &inventory.Snapshot{
		Key:      key,
		Records:  records,
		LoadedAt: c.now(),
	}

	elapsed := c.now().Sub(start)
	if c.metrics != nil {
		c.metrics.SnapshotLoadsTotal.WithLabelValues("ok").Inc()
		c.metrics.SnapshotLoadDuration.Observe(elapsed.Seconds())
		c.metrics.SnapshotRows.Set(float64(len(records)))
	}
	c.logger.Info("snapshot load finished",
		"key", key,
		"rows_fetched", len(rows),
		"rows_kept", len(records),
		"elapsed", elapsed,
	)
	return snap, nil
}

// normalizeAndDedup derives the matching fields for every row and drops
// duplicate (store, product) pairs, keeping the first occurrence.
func (c *Cache) normalizeAndDedup(rows []inventory.Record) []inventory.NormalizedRecord {
	records := make([]inventory.NormalizedRecord, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key := row.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		records = append(records, inventory.NewNormalizedRecord(c.norm, row))
	}
	return records
}

// insert publishes a snapshot and evicts the oldest entries beyond the
// retention limit.
func (c *Cache) insert(snap *inventory.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.snaps[snap.Key]; !exists {
		c.order = append(c.order, snap.Key)
	}
	c.snaps[snap.Key] = snap
	for len(c.order) > c.cfg.Retention {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.snaps, oldest)
		c.logger.Info("snapshot evicted", "key", oldest)
	}
}
