package usecase

import (
	"sync"

	"stock_watch/internal/feature/stocks/domain/entity"
)

// MemoryCache is the process-lifetime view of all known stocks.
// Order is the order given to the last Replace; Merge never changes it.
type MemoryCache struct {
	mu     sync.RWMutex
	stocks []entity.Stock
	index  map[string]int
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{index: make(map[string]int)}
}

// Get returns a copy of the current contents.
func (c *MemoryCache) Get() []entity.Stock {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.Stock, len(c.stocks))
	copy(out, c.stocks)
	return out
}

// Find returns the cached record for symbol.
func (c *MemoryCache) Find(symbol string) (entity.Stock, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[symbol]
	if !ok {
		return entity.Stock{}, false
	}
	return c.stocks[i], true
}

// Len returns the number of cached records.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stocks)
}

// Replace overwrites the whole cache. A later duplicate of a symbol wins
// over an earlier one and keeps the earlier position.
func (c *MemoryCache) Replace(stocks []entity.Stock) {
	next := make([]entity.Stock, 0, len(stocks))
	index := make(map[string]int, len(stocks))
	for _, s := range stocks {
		if i, ok := index[s.Symbol]; ok {
			next[i] = s
			continue
		}
		index[s.Symbol] = len(next)
		next = append(next, s)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stocks = next
	c.index = index
}

// Merge replaces, in place, the entries whose symbol is already cached.
// Unknown symbols are ignored. It returns the records that were stored.
func (c *MemoryCache) Merge(stocks []entity.Stock) []entity.Stock {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]entity.Stock, 0, len(stocks))
	for _, s := range stocks {
		i, ok := c.index[s.Symbol]
		if !ok {
			continue
		}
		c.stocks[i] = s
		merged = append(merged, s)
	}
	return merged
}
