package repository

import "errors"

var (
	// ErrConcurrencyConflict is returned when an optimistic version check
	// detects that the row changed since it was read. Callers should reload
	// the entity and retry.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrNotFound is returned when an entity does not exist
	ErrNotFound = errors.New("not found")
)
