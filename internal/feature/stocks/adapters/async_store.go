package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"stock_watch/internal/feature/stocks/domain/entity"
	"stock_watch/internal/feature/stocks/usecase"
)

// QueuePolicy decides what happens when the write queue is full.
type QueuePolicy string

const (
	// PolicyRejectNew refuses the incoming batch with usecase.ErrQueueFull.
	PolicyRejectNew QueuePolicy = "reject-new"
	// PolicyDropOldest evicts the oldest queued batch to make room.
	PolicyDropOldest QueuePolicy = "drop-oldest"

	// DefaultQueueSize is used when NewAsyncStore receives a non-positive size.
	DefaultQueueSize = 64

	flushPollInterval = 5 * time.Millisecond
)

// ErrStoreClosed is returned by Enqueue and Flush after Close.
var ErrStoreClosed = errors.New("async store closed")

// job is one queued batch and its completion callback.
type job struct {
	batch []entity.Update
	done  func(error)
}

func (j job) finish(err error) {
	if j.done != nil {
		j.done(err)
	}
}

// ParseQueuePolicy converts a configuration value to a QueuePolicy.
// An empty string selects PolicyRejectNew.
func ParseQueuePolicy(s string) (QueuePolicy, error) {
	switch QueuePolicy(s) {
	case "", PolicyRejectNew:
		return PolicyRejectNew, nil
	case PolicyDropOldest:
		return PolicyDropOldest, nil
	default:
		return "", fmt.Errorf("unknown queue policy %q", s)
	}
}

// AsyncStore persists batches on a single dedicated writer goroutine fed by a
// bounded queue. Callers never wait for a write; failed batches are logged and
// discarded without retry.
type AsyncStore struct {
	repo   usecase.StockRepository
	policy QueuePolicy
	queue  chan job

	mu      sync.Mutex // guards closed and queue sends
	closed  bool
	pending atomic.Int64

	startOnce sync.Once
	done      chan struct{}
}

var _ usecase.StoreWriter = (*AsyncStore)(nil)

// NewAsyncStore creates an AsyncStore in front of repo. Call Start to begin writing.
func NewAsyncStore(repo usecase.StockRepository, size int, policy QueuePolicy) *AsyncStore {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if policy == "" {
		policy = PolicyRejectNew
	}
	return &AsyncStore{
		repo:   repo,
		policy: policy,
		queue:  make(chan job, size),
		done:   make(chan struct{}),
	}
}

// Start launches the writer goroutine. Calling it more than once has no effect.
func (a *AsyncStore) Start() {
	a.startOnce.Do(func() {
		go a.run()
	})
}

// Enqueue queues batch without blocking. done is not called when Enqueue
// itself returns an error.
func (a *AsyncStore) Enqueue(batch []entity.Update, done func(error)) error {
	if len(batch) == 0 {
		return nil
	}
	j := job{batch: append([]entity.Update(nil), batch...), done: done}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrStoreClosed
	}

	if a.trySend(j) {
		return nil
	}
	if a.policy == PolicyDropOldest {
		select {
		case old := <-a.queue:
			a.pending.Add(-1)
			slog.Warn("write queue full, dropping oldest batch", "size", len(old.batch))
			old.finish(usecase.ErrQueueFull)
		default:
		}
		if a.trySend(j) {
			return nil
		}
	}
	return usecase.ErrQueueFull
}

func (a *AsyncStore) trySend(j job) bool {
	// count before sending so the writer can never observe a negative total
	a.pending.Add(1)
	select {
	case a.queue <- j:
		return true
	default:
		a.pending.Add(-1)
		return false
	}
}

// Pending returns the number of batches queued or being written.
func (a *AsyncStore) Pending() int {
	return int(a.pending.Load())
}

// Flush waits until every batch queued so far has been written or discarded.
func (a *AsyncStore) Flush(ctx context.Context) error {
	ticker := time.NewTicker(flushPollInterval)
	defer ticker.Stop()
	for a.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close stops accepting batches and waits for the queue to drain.
// An in-flight write is never cancelled; ctx only bounds the wait.
func (a *AsyncStore) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	a.Start()
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AsyncStore) run() {
	defer close(a.done)
	for j := range a.queue {
		j.finish(a.write(j.batch))
		a.pending.Add(-1)
	}
}

// write runs one batch on its own background context, detached from whoever queued it.
func (a *AsyncStore) write(batch []entity.Update) error {
	if err := a.repo.SaveBatch(context.Background(), batch); err != nil {
		slog.Error("discarding store batch", "size", len(batch), "error", err)
		return err
	}
	slog.Debug("store batch committed", "size", len(batch))
	return nil
}
