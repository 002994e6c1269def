package adapters

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_watch/internal/feature/stocks/domain/entity"
	"stock_watch/internal/feature/stocks/usecase"
)

// blockingRepository はreleaseが閉じられるまでSaveBatchを止めるStockRepositoryです。
type blockingRepository struct {
	mu      sync.Mutex
	saved   [][]entity.Update
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingRepository() *blockingRepository {
	return &blockingRepository{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (r *blockingRepository) Load(ctx context.Context) ([]entity.Stock, error) { return nil, nil }

func (r *blockingRepository) SaveBatch(ctx context.Context, updates []entity.Update) error {
	r.started <- struct{}{}
	<-r.release
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, updates)
	return nil
}

func (r *blockingRepository) Saved() [][]entity.Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]entity.Update(nil), r.saved...)
}

func tick(symbol string, price float64) []entity.Update {
	return []entity.Update{entity.PriceTick{Symbol: symbol, Price: price}}
}

func TestParseQueuePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected QueuePolicy
		wantErr  bool
	}{
		{input: "", expected: PolicyRejectNew},
		{input: "reject-new", expected: PolicyRejectNew},
		{input: "drop-oldest", expected: PolicyDropOldest},
		{input: "block", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseQueuePolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestAsyncStore_EventualConsistency はFlush後にストアの内容がキュー投入順で反映されることを検証します。
func TestAsyncStore_EventualConsistency(t *testing.T) {
	t.Parallel()

	repo := NewStockRepository(setupTestDB(t))
	store := NewAsyncStore(repo, 8, PolicyRejectNew)
	store.Start()

	require.NoError(t, store.Enqueue([]entity.Update{
		entity.ListEntry{Symbol: "AAPL", Name: "Apple", Price: 100},
		entity.ListEntry{Symbol: "MSFT", Name: "Microsoft", Price: 400},
	}, nil))
	require.NoError(t, store.Enqueue([]entity.Update{entity.Favorite{Symbol: "AAPL", IsFavorite: true}}, nil))
	require.NoError(t, store.Enqueue(tick("AAPL", 105), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.Flush(ctx))
	assert.Zero(t, store.Pending())

	stocks, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Stock{
		{Symbol: "AAPL", Name: "Apple", Price: 105, IsFavorite: true},
		{Symbol: "MSFT", Name: "Microsoft", Price: 400},
	}, stocks)

	require.NoError(t, store.Close(ctx))
}

// TestAsyncStore_RejectNew はキューが満杯のとき新しいバッチを拒否することを検証します。
func TestAsyncStore_RejectNew(t *testing.T) {
	t.Parallel()

	repo := newBlockingRepository()
	store := NewAsyncStore(repo, 1, PolicyRejectNew)
	store.Start()

	require.NoError(t, store.Enqueue(tick("AAPL", 1), nil))
	<-repo.started // 1件目は書き込み中
	require.NoError(t, store.Enqueue(tick("AAPL", 2), nil))

	err := store.Enqueue(tick("AAPL", 3), nil)

	assert.ErrorIs(t, err, usecase.ErrQueueFull)
	assert.Equal(t, 2, store.Pending())

	close(repo.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.Close(ctx))
	assert.Equal(t, [][]entity.Update{tick("AAPL", 1), tick("AAPL", 2)}, repo.Saved())
}

// TestAsyncStore_DropOldest はキューが満杯のとき最も古い待機バッチを捨てることを検証します。
func TestAsyncStore_DropOldest(t *testing.T) {
	t.Parallel()

	repo := newBlockingRepository()
	store := NewAsyncStore(repo, 1, PolicyDropOldest)
	store.Start()

	require.NoError(t, store.Enqueue(tick("AAPL", 1), nil))
	<-repo.started
	require.NoError(t, store.Enqueue(tick("AAPL", 2), nil))
	require.NoError(t, store.Enqueue(tick("AAPL", 3), nil))
	assert.Equal(t, 2, store.Pending())

	close(repo.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.Close(ctx))
	assert.Equal(t, [][]entity.Update{tick("AAPL", 1), tick("AAPL", 3)}, repo.Saved())
}

// TestAsyncStore_FailureIsDiscarded は書き込み失敗したバッチが再試行されず後続が処理されることを検証します。
func TestAsyncStore_FailureIsDiscarded(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedStock(t, db, entity.Stock{Symbol: "AAPL", Price: 100})
	repo := NewStockRepository(db)
	store := NewAsyncStore(repo, 4, PolicyRejectNew)
	store.Start()

	require.NoError(t, store.Enqueue([]entity.Update{
		entity.PriceTick{Symbol: "AAPL", Price: 1},
		entity.ListEntry{Symbol: "", Name: "invalid"},
	}, nil))
	require.NoError(t, store.Enqueue(tick("AAPL", 2), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.Close(ctx))

	stocks, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Stock{{Symbol: "AAPL", Price: 2}}, stocks)
}

func TestAsyncStore_Closed(t *testing.T) {
	t.Parallel()

	store := NewAsyncStore(newBlockingRepository(), 0, "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, store.Close(ctx))
	require.NoError(t, store.Close(ctx))

	assert.ErrorIs(t, store.Enqueue(tick("AAPL", 1), nil), ErrStoreClosed)
	assert.NoError(t, store.Enqueue(nil, nil), "empty batch is a no-op")
}

// TestAsyncStore_EnqueueCopiesBatch は呼び出し側のスライス変更がキュー内容に影響しないことを検証します。
func TestAsyncStore_EnqueueCopiesBatch(t *testing.T) {
	t.Parallel()

	repo := newBlockingRepository()
	store := NewAsyncStore(repo, 2, PolicyRejectNew)

	batch := tick("AAPL", 1)
	require.NoError(t, store.Enqueue(batch, nil))
	batch[0] = entity.PriceTick{Symbol: "AAPL", Price: 99}

	store.Start()
	close(repo.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, store.Close(ctx))

	assert.Equal(t, [][]entity.Update{tick("AAPL", 1)}, repo.Saved())
}

func TestAsyncStore_Flush_ContextDone(t *testing.T) {
	t.Parallel()

	repo := newBlockingRepository()
	store := NewAsyncStore(repo, 1, PolicyRejectNew)
	store.Start()
	require.NoError(t, store.Enqueue(tick("AAPL", 1), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := store.Flush(ctx)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	close(repo.release)
	require.NoError(t, store.Close(context.Background()))
}

// TestAsyncStore_DoneCallback はコミット・破棄・押し出しの各結果がdoneに通知されることを検証します。
func TestAsyncStore_DoneCallback(t *testing.T) {
	t.Parallel()

	repo := newBlockingRepository()
	repo.err = errors.New("disk full")
	store := NewAsyncStore(repo, 1, PolicyDropOldest)
	store.Start()

	results := make(chan error, 3)
	done := func(err error) { results <- err }

	require.NoError(t, store.Enqueue(tick("AAPL", 1), done))
	<-repo.started
	require.NoError(t, store.Enqueue(tick("AAPL", 2), done))
	require.NoError(t, store.Enqueue(tick("AAPL", 3), done))

	// 2件目はキューから押し出される
	assert.ErrorIs(t, <-results, usecase.ErrQueueFull)

	close(repo.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.Close(ctx))

	assert.EqualError(t, <-results, "disk full")
	assert.EqualError(t, <-results, "disk full")
}

func TestAsyncStore_DoneCallback_Commit(t *testing.T) {
	t.Parallel()

	store := NewAsyncStore(NewStockRepository(setupTestDB(t)), 1, PolicyRejectNew)
	store.Start()

	results := make(chan error, 1)
	require.NoError(t, store.Enqueue([]entity.Update{entity.ListEntry{Symbol: "AAPL", Price: 1}}, func(err error) { results <- err }))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, store.Close(ctx))
	assert.NoError(t, <-results)
}
