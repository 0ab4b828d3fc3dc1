package domain

import "errors"

// Error taxonomy. Repositories translate storage errors into one of
// these sentinels; handlers map them onto HTTP status and envelope
// codes. ErrInvariant marks an internal consistency failure (counter
// drift, geometry mismatch) and is never presented as an input error.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvariant    = errors.New("invariant violation")
)
