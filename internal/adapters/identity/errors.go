package identity

import "errors"

var (
	// ErrMissingSecret is returned when no token secret is configured.
	ErrMissingSecret = errors.New("jwt secret is required")
	// ErrMissingEmail is returned for tokens without an email claim.
	ErrMissingEmail = errors.New("token has no email claim")
	// ErrNotFound is returned by the slot store for unknown employees.
	ErrNotFound = errors.New("employee not found")
)
