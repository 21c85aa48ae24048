package usecase

import "errors"

// Error kinds. Engine operations classify domain failures by wrapping one
// of these via fmt.Errorf("%w: ...") so callers dispatch on errors.Is.
// Failures from the store or the id generator are wrapped with context
// only and carry none of these kinds.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrPrecondition is a world-state guard failure that cannot be
	// resolved by retry (league already started, not enough players for
	// playoffs).
	ErrPrecondition = errors.New("precondition failed")
	// ErrConflict signals a concurrent actor won the race. Most Engine
	// operations treat this as a successful no-op internally; it only
	// propagates to a caller when retrying requires new input (e.g. a
	// duplicate join code).
	ErrConflict = errors.New("conflict")
	// ErrInvariant is a fatal post-condition violation (e.g. a duplicate
	// player in a generated week). It should page an operator, never be
	// retried blindly.
	ErrInvariant = errors.New("invariant violation")
)
