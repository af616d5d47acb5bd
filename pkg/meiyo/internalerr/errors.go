package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrMissingResource marks an absent or empty dictionary, whitelist or
	// surname source. Evaluation treats it as an empty collection.
	ErrMissingResource = errors.New("missing resource")
	// ErrMalformedEntry marks a source entry that is skipped by the loaders.
	ErrMalformedEntry = errors.New("malformed dictionary entry")
	// ErrTokenization marks a backend that could not segment its input.
	ErrTokenization = errors.New("tokenization failed")
)
