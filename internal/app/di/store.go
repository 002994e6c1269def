package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stock_watch/internal/feature/stocks/adapters"
	"stock_watch/internal/feature/stocks/usecase"
	"stock_watch/internal/platform/cache"
	"stock_watch/internal/platform/config"
)

// NewStockRepository creates the synchronous StockRepository.
// If Redis is available, the gorm store is wrapped with the snapshot cache.
func NewStockRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) usecase.StockRepository {
	repo := adapters.NewStockRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingStockRepository(rdb, ttl, repo, "stocks")
}

// NewAsyncStore creates the queued writer in front of repo. The caller must Start and Close it.
func NewAsyncStore(repo usecase.StockRepository, cfg config.SyncConfig) (*adapters.AsyncStore, error) {
	policy, err := adapters.ParseQueuePolicy(cfg.QueuePolicy)
	if err != nil {
		return nil, err
	}
	return adapters.NewAsyncStore(repo, cfg.WriteQueueSize, policy), nil
}
