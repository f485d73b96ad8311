package domain

import "errors"

var (
	// Per-item calculation errors. A projection skips the offending item.
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrUnknownCategory   = errors.New("unknown menu category")

	// Store errors, surfaced to the caller as a whole.
	ErrStoreUnavailable         = errors.New("order store unavailable")
	ErrStatusTransitionConflict = errors.New("status transition conflict")

	ErrItemNotFound      = errors.New("preparation item not found")
	ErrInvalidItemStatus = errors.New("invalid item status")
)
