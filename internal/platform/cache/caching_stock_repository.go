// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_watch/internal/feature/stocks/domain/entity"
	"stock_watch/internal/feature/stocks/usecase"
)

// CachingStockRepository decorates a StockRepository with a Redis copy of the
// last full Load. It implements the decorator pattern, transparently adding
// caching without modifying the underlying repository.
//
// Snapshots are keyed by a generation counter that every successful SaveBatch
// increments, so a snapshot built from a pre-commit read is never served after
// the commit.
type CachingStockRepository struct {
	inner     usecase.StockRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string

	// stale is set while the last generation bump failed; Load skips Redis until one succeeds.
	stale atomic.Bool
}

var _ usecase.StockRepository = (*CachingStockRepository)(nil)

// NewCachingStockRepository decorates a StockRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "stocks".
// A nil client disables caching.
func NewCachingStockRepository(rdb *redis.Client, ttl time.Duration, inner usecase.StockRepository, namespace string) *CachingStockRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "stocks"
	}
	return &CachingStockRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Load returns the stored records, checking Redis first then falling back to the database.
func (c *CachingStockRepository) Load(ctx context.Context) ([]entity.Stock, error) {
	if c.rdb == nil || c.stale.Load() {
		return c.inner.Load(ctx)
	}

	// 0) Read the generation before the database so a concurrent commit moves past it
	gen, err := c.rdb.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("failed to read stock snapshot generation", "error", err)
		return c.inner.Load(ctx)
	}
	key := c.snapshotKey(gen)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Stock
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// SaveBatch writes through to the database and moves the snapshot generation.
// If the generation cannot be moved the committed batch is reported as a write
// failure so it is sent again, and Load bypasses Redis in the meantime.
func (c *CachingStockRepository) SaveBatch(ctx context.Context, updates []entity.Update) error {
	if err := c.inner.SaveBatch(ctx, updates); err != nil {
		return err
	}
	if c.rdb == nil || len(updates) == 0 {
		return nil
	}
	if err := c.rdb.Incr(ctx, c.generationKey()).Err(); err != nil {
		c.stale.Store(true)
		slog.Warn("failed to invalidate stock snapshot", "error", err)
		return fmt.Errorf("%w: invalidate snapshot: %w", usecase.ErrWriteFailure, err)
	}
	c.stale.Store(false)
	return nil
}

func (c *CachingStockRepository) generationKey() string {
	return fmt.Sprintf("%s:generation", safe(c.namespace))
}

func (c *CachingStockRepository) snapshotKey(gen int64) string {
	return fmt.Sprintf("%s:snapshot:%d", safe(c.namespace), gen)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
