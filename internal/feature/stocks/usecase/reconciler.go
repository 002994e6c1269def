package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"stock_watch/internal/feature/stocks/domain/entity"
)

// Reconciler is the single merge authority for stock records.
// Every mutation merges into the MemoryCache first, then queues the matching
// store batch, then notifies subscribers. The cache is the source of truth for
// the running process; the store catches up asynchronously.
//
// Columns changed in the cache stay dirty until a batch carrying them commits.
// Every batch writes the current cached values of all dirty columns of its
// symbols, and symbols whose batch was lost ride along with the next one.
type Reconciler struct {
	mu       sync.Mutex
	cache    *MemoryCache
	store    StockRepository
	writer   StoreWriter
	notifier *Notifier

	// pmu guards seq, dirty and retry. The writer may settle a batch from
	// inside Enqueue, so it is never held across a writer call.
	pmu   sync.Mutex
	seq   uint64
	dirty map[string]map[string]uint64 // symbol -> column -> seq of the last change
	retry map[string]struct{}
}

// NewReconciler wires a Reconciler. If notifier is nil a private one is created.
func NewReconciler(cache *MemoryCache, store StockRepository, writer StoreWriter, notifier *Notifier) *Reconciler {
	if notifier == nil {
		notifier = NewNotifier(0)
	}
	return &Reconciler{
		cache:    cache,
		store:    store,
		writer:   writer,
		notifier: notifier,
		dirty:    make(map[string]map[string]uint64),
		retry:    make(map[string]struct{}),
	}
}

// Notifier returns the notifier events are published on.
func (r *Reconciler) Notifier() *Notifier {
	return r.notifier
}

// Seed loads the persistent store into the cache.
// On a read failure the cache is left empty and the error is returned for information only.
func (r *Reconciler) Seed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stocks, err := r.store.Load(ctx)
	if err != nil {
		slog.Error("failed to load stocks from store", "error", err)
		r.cache.Replace(nil)
		return err
	}
	r.cache.Replace(stocks)
	slog.Info("memory cache seeded", "count", len(stocks))
	return nil
}

// Snapshot returns the current cached records in cache order.
func (r *Reconciler) Snapshot() []entity.Stock {
	return r.cache.Get()
}

// Find returns the cached record for symbol or ErrNotFound.
func (r *Reconciler) Find(symbol string) (entity.Stock, error) {
	s, ok := r.cache.Find(symbol)
	if !ok {
		return entity.Stock{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return s, nil
}

// Favorites returns the cached records marked as favorite, in cache order.
func (r *Reconciler) Favorites() []entity.Stock {
	all := r.cache.Get()
	out := make([]entity.Stock, 0, len(all))
	for _, s := range all {
		if s.IsFavorite {
			out = append(out, s)
		}
	}
	return out
}

// ApplyStockList replaces the cache with the given full list. Records already
// cached keep their profile and favorite state; only name and price change.
// Entries with an invalid symbol are skipped.
func (r *Reconciler) ApplyStockList(entries []entity.ListEntry) []entity.Stock {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]entity.Stock, 0, len(entries))
	updates := make([]entity.Update, 0, len(entries))
	listed := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := entity.ValidateSymbol(e.Symbol); err != nil {
			slog.Warn("skipping stock list entry", "symbol", e.Symbol, "error", err)
			continue
		}
		base, ok := r.cache.Find(e.Symbol)
		if !ok {
			base = entity.Stock{Symbol: e.Symbol}
		}
		next = append(next, entity.Merge(base, e))
		updates = append(updates, e)
		listed[e.Symbol] = struct{}{}
	}

	r.cache.Replace(next)
	r.forgetUnlisted(listed)
	r.enqueue(updates)
	stocks := r.cache.Get()
	r.notifier.Publish(entity.Event{Kind: entity.EventUpdateSuccess, Stocks: stocks})
	return stocks
}

// ApplyPrices merges price ticks into cached records. Ticks for unknown
// symbols are ignored.
func (r *Reconciler) ApplyPrices(ticks []entity.PriceTick) []entity.Stock {
	return r.mergeAll(toUpdates(ticks))
}

// ApplyProfiles merges profile data into cached records and marks them as
// having profile data. Profiles for unknown symbols are ignored.
func (r *Reconciler) ApplyProfiles(profiles []entity.Profile) []entity.Stock {
	return r.mergeAll(toUpdates(profiles))
}

// SetFavorite flips the favorite flag of a cached record. Removing a favorite
// only clears the flag; the record stays in the cache and the store.
func (r *Reconciler) SetFavorite(symbol string, favorite bool) (entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.cache.Find(symbol)
	if !ok {
		return entity.Stock{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	u := entity.Favorite{Symbol: symbol, IsFavorite: favorite}
	merged := entity.Merge(existing, u)
	r.cache.Merge([]entity.Stock{merged})
	r.enqueue([]entity.Update{u})

	kind := entity.EventFavoriteRemoved
	if favorite {
		kind = entity.EventFavoriteAdded
	}
	r.notifier.Publish(entity.Event{Kind: kind, Stocks: []entity.Stock{merged}})
	return merged, nil
}

// ReportFailure forwards a fetch-layer failure to subscribers.
func (r *Reconciler) ReportFailure(err error) {
	if err == nil {
		return
	}
	slog.Warn("update cycle failed", "error", err)
	r.notifier.Publish(entity.Event{Kind: entity.EventUpdateFailure, Err: err})
}

// mergeAll applies each update to its cached record. Only updates that hit a
// cached symbol are written to the store.
func (r *Reconciler) mergeAll(updates []entity.Update) []entity.Stock {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make([]entity.Stock, 0, len(updates))
	accepted := make([]entity.Update, 0, len(updates))
	pos := make(map[string]int, len(updates))
	for _, u := range updates {
		var base entity.Stock
		if i, ok := pos[u.Key()]; ok {
			base = merged[i]
		} else if s, ok := r.cache.Find(u.Key()); ok {
			base = s
		} else {
			slog.Debug("ignoring update for unknown symbol", "symbol", u.Key())
			continue
		}
		next := entity.Merge(base, u)
		if i, ok := pos[u.Key()]; ok {
			merged[i] = next
		} else {
			pos[u.Key()] = len(merged)
			merged = append(merged, next)
		}
		accepted = append(accepted, u)
	}
	if len(merged) == 0 {
		return merged
	}

	stored := r.cache.Merge(merged)
	r.enqueue(accepted)
	r.notifier.Publish(entity.Event{Kind: entity.EventUpdateSuccess, Stocks: stored})
	return stored
}

// enqueue marks the columns of updates dirty and hands the writer one Record
// per symbol built from the cache. Failures are logged only: the cache already
// holds the new state and is never rolled back. Callers hold r.mu.
func (r *Reconciler) enqueue(updates []entity.Update) {
	if len(updates) == 0 || r.writer == nil {
		return
	}
	batch, seq := r.pendingBatch(updates)
	if len(batch) == 0 {
		return
	}

	err := r.writer.Enqueue(batch, func(err error) { r.settle(batch, seq, err) })
	if err != nil {
		slog.Warn("failed to queue store write", "size", len(batch), "error", err)
		r.pmu.Lock()
		r.markRetry(batch)
		r.pmu.Unlock()
	}
}

// pendingBatch builds the store batch for updates plus every symbol whose
// last batch was lost.
func (r *Reconciler) pendingBatch(updates []entity.Update) ([]entity.Update, uint64) {
	r.pmu.Lock()
	defer r.pmu.Unlock()

	r.seq++
	seq := r.seq

	symbols := make([]string, 0, len(updates)+len(r.retry))
	seen := make(map[string]struct{}, cap(symbols))
	add := func(symbol string) {
		if _, ok := seen[symbol]; !ok {
			seen[symbol] = struct{}{}
			symbols = append(symbols, symbol)
		}
	}
	for _, u := range updates {
		cols, ok := r.dirty[u.Key()]
		if !ok {
			cols = make(map[string]uint64)
			r.dirty[u.Key()] = cols
		}
		for _, f := range u.Fields() {
			cols[f] = seq
		}
		add(u.Key())
	}
	retry := make([]string, 0, len(r.retry))
	for symbol := range r.retry {
		retry = append(retry, symbol)
	}
	slices.Sort(retry)
	for _, symbol := range retry {
		add(symbol)
	}
	clear(r.retry)

	batch := make([]entity.Update, 0, len(symbols))
	for _, symbol := range symbols {
		s, ok := r.cache.Find(symbol)
		cols := r.dirty[symbol]
		if !ok || len(cols) == 0 {
			continue
		}
		columns := make([]string, 0, len(cols))
		for c := range cols {
			columns = append(columns, c)
		}
		slices.Sort(columns)
		batch = append(batch, entity.Record{Stock: s, Columns: columns})
	}
	return batch, seq
}

// settle is called by the writer once batch was committed or discarded.
func (r *Reconciler) settle(batch []entity.Update, seq uint64, err error) {
	r.pmu.Lock()
	defer r.pmu.Unlock()

	if err != nil {
		r.markRetry(batch)
		return
	}
	for _, u := range batch {
		cols := r.dirty[u.Key()]
		for _, f := range u.Fields() {
			// a newer change to the column is still on its way
			if cols[f] <= seq {
				delete(cols, f)
			}
		}
		if len(cols) == 0 {
			delete(r.dirty, u.Key())
		}
	}
}

// markRetry needs r.pmu.
func (r *Reconciler) markRetry(batch []entity.Update) {
	for _, u := range batch {
		if len(r.dirty[u.Key()]) > 0 {
			r.retry[u.Key()] = struct{}{}
		}
	}
}

// forgetUnlisted drops pending columns of symbols that left the cache.
func (r *Reconciler) forgetUnlisted(listed map[string]struct{}) {
	r.pmu.Lock()
	defer r.pmu.Unlock()
	for symbol := range r.dirty {
		if _, ok := listed[symbol]; !ok {
			delete(r.dirty, symbol)
			delete(r.retry, symbol)
		}
	}
}

// Dirty reports how many symbols have columns not yet confirmed by the store.
func (r *Reconciler) Dirty() int {
	r.pmu.Lock()
	defer r.pmu.Unlock()
	return len(r.dirty)
}

func toUpdates[T entity.Update](in []T) []entity.Update {
	out := make([]entity.Update, 0, len(in))
	for _, u := range in {
		out = append(out, u)
	}
	return out
}
