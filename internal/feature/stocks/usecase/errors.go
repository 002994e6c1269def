// Package usecase implements the synchronization and caching logic for stock records.
package usecase

import "errors"

var (
	// ErrReadFailure is returned when the persistent store cannot be scanned or decoded.
	ErrReadFailure = errors.New("store read failure")

	// ErrWriteFailure is returned when a batch cannot be committed to the persistent store.
	ErrWriteFailure = errors.New("store write failure")

	// ErrNotFound is returned to callers that address a symbol absent from the cache.
	// Inside merges it is never surfaced: unknown symbols are skipped.
	ErrNotFound = errors.New("stock not found")

	// ErrQueueFull is returned when the write queue rejects a batch.
	ErrQueueFull = errors.New("write queue full")
)
