// Package apperr defines the error values shared by the post store and its transports.
package apperr

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStale        = errors.New("checksum mismatch")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error kinds exposed to clients next to the human-readable message.
const (
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindConflict     = "conflict"
	KindStale        = "stale"
	KindUnauthorized = "unauthorized"
	KindInternal     = "internal"
)

// Kind classifies err by the sentinel it wraps. Anything unrecognised,
// including filesystem failures, is KindInternal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStale):
		return KindStale
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}
