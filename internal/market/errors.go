package market

import "errors"

// Error taxonomy. Callers classify with errors.Is; messages carry the detail.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConflict means a lost compare-and-set race; safe to retry.
	ErrConflict = errors.New("conflict")
)
