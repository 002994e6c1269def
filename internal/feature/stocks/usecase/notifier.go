package usecase

import (
	"log/slog"
	"sync"

	"stock_watch/internal/feature/stocks/domain/entity"
)

const defaultSubscriberBuffer = 16

// Notifier fans reconciliation events out to subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[int]chan entity.Event
	nextID int
	buffer int
}

// NewNotifier creates a Notifier whose subscriber channels hold buffer events.
// If buffer is 0 or negative, it defaults to 16.
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Notifier{subs: make(map[int]chan entity.Event), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned cancel func closes the channel.
func (n *Notifier) Subscribe() (<-chan entity.Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan entity.Event, n.buffer)
	n.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber that has room for it.
func (n *Notifier) Publish(ev entity.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for id, ch := range n.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("dropping event for slow subscriber", "subscriber", id, "kind", ev.Kind)
		}
	}
}
