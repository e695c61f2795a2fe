package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput covers malformed or missing request fields, including
	// rejecting a moderation decision without the required reason.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden signals a role or ownership violation, such as a buyer
	// attempting an admin-only transition.
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned on re-review of a terminal record or a duplicate
	// refund against an already-refunded order.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientBalance is returned when a reservation or reversal cannot
	// be covered by the creator's balance. No bucket is ever driven negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidTransition rejects any state-machine edge not present in the
	// transition tables below.
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrIdempotencyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict = errors.New("idempotency conflict")
)
