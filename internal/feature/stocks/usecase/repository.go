package usecase

import (
	"context"

	"stock_watch/internal/feature/stocks/domain/entity"
)

// StockRepository abstracts the synchronous persistent store.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type StockRepository interface {
	// Load returns every stored record ordered by symbol ascending.
	Load(ctx context.Context) ([]entity.Stock, error)

	// SaveBatch applies all updates in one transaction: either every update
	// is committed or none is.
	SaveBatch(ctx context.Context, updates []entity.Update) error
}

// StoreWriter accepts batches for asynchronous, fire-and-forget persistence.
type StoreWriter interface {
	// Enqueue queues batch without blocking. A non-nil done is called once from
	// the writer with nil after a commit, or with the error the batch was
	// discarded for.
	Enqueue(batch []entity.Update, done func(error)) error
}

// MarketFetcher abstracts the remote data source.
type MarketFetcher interface {
	FetchStockList(ctx context.Context) ([]entity.ListEntry, error)
	FetchPrices(ctx context.Context, symbols []string) ([]entity.PriceTick, error)
	FetchProfile(ctx context.Context, symbol string) (entity.Profile, error)
}
