package core

import "errors"

// Sentinel errors forming the domain error taxonomy. Storage and services
// wrap these with context; the HTTP boundary translates them to status codes
// exactly once.
var (
	// ErrNotFound covers both absent resources and resources owned by
	// another user, so existence never leaks across owners.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a duplicate unique field (e.g. email).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized signals a missing, invalid or expired credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden signals a failed role check.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation signals malformed input or a disabled feature.
	ErrValidation = errors.New("validation failed")

	// ErrLocked signals an account under brute-force lockout.
	ErrLocked = errors.New("account locked")
)
