package model

import "errors"

// Sentinel kinds shared by the cache, its collaborators and the transport layer.
var (
	// ErrDataSource marks a warehouse failure: unreachable, timed out or malformed.
	ErrDataSource = errors.New("data source unavailable")
	// ErrInvalidArgument marks an unknown competition, level or malformed parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized marks a missing, malformed or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks an authenticated requester lacking the required role or scope.
	ErrForbidden = errors.New("forbidden")
)
