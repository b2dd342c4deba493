package domain

import "errors"

var (
	// ErrInvalidDomain reports an unusable time domain: a reversed full extent,
	// a step count below one or a negative step magnitude.
	ErrInvalidDomain = errors.New("invalid time domain")
	// ErrNotFound is returned by state stores for unknown names.
	ErrNotFound = errors.New("not found")
)
