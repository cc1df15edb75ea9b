package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/senirlioglu/Ara/pkg/metrics"
	"github.com/senirlioglu/Ara/pkg/redis"
)

const respCachePrefix = "ara:search:"

// ResponseCache is a Redis-backed cache of serialized search responses.
// Entries are keyed by snapshot key plus normalized query, so a snapshot
// cutover naturally stops producing hits for yesterday's responses without
// an explicit flush. Redis failures degrade to a miss; they never fail the
// search.
type ResponseCache struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewResponseCache(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *ResponseCache {
	return &ResponseCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "response-cache"),
	}
}

func (c *ResponseCache) Get(ctx context.Context, snapshotKey, normalizedQuery string) (*Response, bool) {
	raw, err := c.client.Get(ctx, cacheKey(snapshotKey, normalizedQuery))
	if err != nil {
		if !redis.IsNilError(err) {
			c.logger.Warn("response cache get failed", "error", err)
		}
		c.miss()
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		c.logger.Warn("response cache entry corrupt", "error", err)
		c.miss()
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.ResponseCacheHits.Inc()
	}
	return &resp, true
}

func (c *ResponseCache) Set(ctx context.Context, snapshotKey, normalizedQuery string, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("response cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(snapshotKey, normalizedQuery), data, c.ttl); err != nil {
		c.logger.Warn("response cache set failed", "error", err)
	}
}

// Invalidate removes every cached response.
func (c *ResponseCache) Invalidate(ctx context.Context) {
	deleted, err := c.client.FlushByPattern(ctx, respCachePrefix+"*")
	if err != nil {
		c.logger.Warn("response cache flush failed", "error", err)
		return
	}
	c.logger.Info("response cache flushed", "deleted", deleted)
}

func (c *ResponseCache) miss() {
	if c.metrics != nil {
		c.metrics.ResponseCacheMisses.Inc()
	}
}

func cacheKey(snapshotKey, normalizedQuery string) string {
	sum := sha256.Sum256([]byte(snapshotKey + "|" + normalizedQuery))
	return respCachePrefix + hex.EncodeToString(sum[:16])
}
