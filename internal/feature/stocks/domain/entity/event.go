package entity

// EventKind identifies a notification emitted after a reconciliation pass.
type EventKind string

const (
	EventUpdateSuccess   EventKind = "update.success"
	EventUpdateFailure   EventKind = "update.failure"
	EventFavoriteAdded   EventKind = "favorite.added"
	EventFavoriteRemoved EventKind = "favorite.removed"
)

// Event is delivered to presentation-side subscribers.
// Stocks holds the merged records for update.success and the single toggled
// record for favorite events. Err is set only for update.failure.
type Event struct {
	Kind   EventKind `json:"kind"`
	Stocks []Stock   `json:"stocks,omitempty"`
	Err    error     `json:"-"`
}
