// Package errs defines the error kinds shared across the finder core.
// Callers classify failures with errors.Is rather than by message.
package errs

import "errors"

var (
	// ErrValidation marks malformed input to a public call: an empty
	// query, a video without an id, an oversized note. Never retried.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a reference to an entity that does not exist,
	// such as favoriting a video id that is not cached.
	ErrNotFound = errors.New("not found")

	// ErrOperational marks a systemic upstream failure (video source or
	// scoring provider unreachable) for a whole call. It is distinct
	// from an empty result, which is a success.
	ErrOperational = errors.New("upstream failure")

	// ErrUnscored marks the filter precondition violation: a video
	// reached the filter without having been scored first.
	ErrUnscored = errors.New("video has not been scored")
)
