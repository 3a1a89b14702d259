// Package common defines shared constants and sentinel errors used across
// the coordinator. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Request validation errors.
	ErrIllegalArgument = errors.New("illegal argument")

	// Lookup errors.
	ErrNotFound         = errors.New("not found")
	ErrFileNotAvailable = errors.New("file not available")

	// Authorization errors.
	ErrPermissionDenied = errors.New("permission denied")

	// Precondition errors.
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotTransferred     = errors.New("file not transferred yet")
	ErrFileTooBig         = errors.New("file too big for download")

	// Explicitly disabled operations.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrSanityCheck signals a broken internal invariant, e.g. a file that
	// has no active transfer job but never reached a final state. It is
	// surfaced as an internal error, never recovered silently.
	ErrSanityCheck = errors.New("sanity check failed")

	// Worker communication errors.
	ErrUpstreamFailure = errors.New("worker request failed")

	// Generic service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)
