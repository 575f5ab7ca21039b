package store

import "errors"

// Sentinel errors mapped to HTTP status at the API boundary (§7).
var (
	ErrNotFound        = errors.New("store: not found")
	ErrConflict        = errors.New("store: conflict")
	ErrBadInput        = errors.New("store: bad input")
	ErrForbidden       = errors.New("store: forbidden state")
	ErrUnauthenticated = errors.New("store: unauthenticated")
	ErrUnsafeDenied    = errors.New("store: unsafe operation not permitted")
)
