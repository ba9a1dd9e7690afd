// internal/app/gateway/errors.go
package gateway

import "errors"

// Rejection taxonomy. Every gateway operation fails with exactly one of
// these (possibly wrapped with detail), so callers can render distinct
// feedback without string matching.
var (
	// ErrUnauthorized means the actor's role does not permit the operation.
	// Terminal for the attempt; never retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput means a required field was empty or malformed after
	// trimming. Terminal for the attempt.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the referenced post or comment vanished between
	// view and mutation.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means the store or its transport failed. The
	// caller may offer a retry; the gateway never retries on its own to
	// avoid duplicate writes.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotConfirmed means a destructive operation was aborted because
	// the caller-side confirmation did not arrive. The store is untouched.
	ErrNotConfirmed = errors.New("not confirmed")

	// ErrInFlight means an identical submission is still outstanding and
	// this one was dropped. No store-side deduplication exists; this guard
	// is the only double-submit protection.
	ErrInFlight = errors.New("submission already in flight")
)
