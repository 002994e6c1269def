package usecase

import (
	"context"
	"sync"

	"stock_watch/internal/feature/stocks/domain/entity"
)

// mockStockRepository はStockRepositoryインターフェースのモック実装です。
type mockStockRepository struct {
	LoadFunc      func(ctx context.Context) ([]entity.Stock, error)
	SaveBatchFunc func(ctx context.Context, updates []entity.Update) error
}

func (m *mockStockRepository) Load(ctx context.Context) ([]entity.Stock, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil, nil
}

func (m *mockStockRepository) SaveBatch(ctx context.Context, updates []entity.Update) error {
	if m.SaveBatchFunc != nil {
		return m.SaveBatchFunc(ctx, updates)
	}
	return nil
}

// recordingWriter はEnqueueされたバッチを記録するStoreWriterです。
// バッチの結果はSettleを呼ぶまで通知されません。
type recordingWriter struct {
	mu      sync.Mutex
	batches [][]entity.Update
	dones   []func(error)
	err     error
}

func (w *recordingWriter) Enqueue(batch []entity.Update, done func(error)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, batch)
	w.dones = append(w.dones, done)
	return nil
}

// Settle はi番目のバッチの結果をReconcilerへ通知します。
func (w *recordingWriter) Settle(i int, err error) {
	w.mu.Lock()
	done := w.dones[i]
	w.mu.Unlock()
	done(err)
}

func (w *recordingWriter) SetErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *recordingWriter) Batches() [][]entity.Update {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]entity.Update(nil), w.batches...)
}

// mockMarketFetcher はMarketFetcherインターフェースのモック実装です。
type mockMarketFetcher struct {
	FetchStockListFunc func(ctx context.Context) ([]entity.ListEntry, error)
	FetchPricesFunc    func(ctx context.Context, symbols []string) ([]entity.PriceTick, error)
	FetchProfileFunc   func(ctx context.Context, symbol string) (entity.Profile, error)
}

func (m *mockMarketFetcher) FetchStockList(ctx context.Context) ([]entity.ListEntry, error) {
	if m.FetchStockListFunc != nil {
		return m.FetchStockListFunc(ctx)
	}
	return nil, nil
}

func (m *mockMarketFetcher) FetchPrices(ctx context.Context, symbols []string) ([]entity.PriceTick, error) {
	if m.FetchPricesFunc != nil {
		return m.FetchPricesFunc(ctx, symbols)
	}
	return nil, nil
}

func (m *mockMarketFetcher) FetchProfile(ctx context.Context, symbol string) (entity.Profile, error) {
	if m.FetchProfileFunc != nil {
		return m.FetchProfileFunc(ctx, symbol)
	}
	return entity.Profile{Symbol: symbol}, nil
}

func ptr[T any](v T) *T { return &v }

// seeded はstocksを読み込み済みのReconcilerを返します。
func seeded(stocks ...entity.Stock) (*Reconciler, *recordingWriter) {
	w := &recordingWriter{}
	rec := NewReconciler(NewMemoryCache(), &mockStockRepository{
		LoadFunc: func(ctx context.Context) ([]entity.Stock, error) { return stocks, nil },
	}, w, nil)
	_ = rec.Seed(context.Background())
	return rec, w
}
