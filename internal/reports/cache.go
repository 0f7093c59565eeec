package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

const financialEpochKey = "reports:financial:epoch"

// Cache memoizes financial summaries in Redis. Invalidation bumps an epoch
// counter baked into every key, so stale entries simply age out of reach and
// no key scan is needed. A nil *Cache is a no-op, which keeps the service
// usable without Redis.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache wraps a Redis client. ttl bounds staleness for writes that
// bypass this process.
func NewCache(client redis.UniversalClient, ttl time.Duration, logger *logging.Logger) *Cache {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// GetFinancial returns a cached summary for the period, if present.
func (c *Cache) GetFinancial(ctx context.Context, p Period) (*FinancialSummary, bool) {
	if c == nil {
		return nil, false
	}
	key, err := c.financialKey(ctx, p)
	if err != nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var summary FinancialSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.logger.Warn("report cache entry corrupt, ignoring", "key", key, "error", err)
		return nil, false
	}
	return &summary, true
}

// SetFinancial stores a summary; reports whether the write happened.
func (c *Cache) SetFinancial(ctx context.Context, p Period, summary *FinancialSummary) bool {
	if c == nil {
		return false
	}
	key, err := c.financialKey(ctx, p)
	if err != nil {
		return false
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return false
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("report cache write failed", "key", key, "error", err)
		return false
	}
	return true
}

// InvalidateFinancial drops every cached summary by bumping the epoch. The
// invoice and appointment services call it after writes.
func (c *Cache) InvalidateFinancial(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, financialEpochKey).Err(); err != nil {
		c.logger.Warn("report cache invalidation failed", "error", err)
	}
}

func (c *Cache) financialKey(ctx context.Context, p Period) (string, error) {
	epoch, err := c.client.Get(ctx, financialEpochKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("reports:financial:%d:%s", epoch, p.Key()), nil
}
