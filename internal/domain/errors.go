package domain

import "errors"

// Sentinel errors shared across services. Services wrap these with context
// using fmt.Errorf("...: %w", ...); callers test with errors.Is.
var (
	// ErrNotFound is returned when a lookup key matches no record.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the acting user does not own the
	// resource the operation targets.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when the request is invalid (e.g. a guest
	// count outside the allowed range).
	ErrInvalidInput = errors.New("invalid input")

	// ErrGuestRegression is returned when a check-in confirmation would
	// lower an already registered guest count.
	ErrGuestRegression = errors.New("guest count may only increase")

	// ErrConflict is returned by conditional updates when the row no longer
	// matches the observed prior state.
	ErrConflict = errors.New("concurrent update conflict")
)
