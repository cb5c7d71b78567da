package core

import "errors"

// Sentinel errors surfaced by the aggregate services. Callers match with
// errors.Is; each layer wraps them with context via fmt.Errorf("...: %w").
var (
	// ErrNotFound: unknown stock unit, catalog item, location, entry or
	// reservation.
	ErrNotFound = errors.New("not found")

	// ErrInvalidLocation: the target location cannot store items.
	ErrInvalidLocation = errors.New("location cannot store items")

	// ErrInvalidQuantity: non-numeric, absolute-valued or otherwise
	// unusable quantity input.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrConcurrentModification: per-unit serialization kept failing after
	// bounded retries. Safe to retry from the caller.
	ErrConcurrentModification = errors.New("concurrent modification")
)
