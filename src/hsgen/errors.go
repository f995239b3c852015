package hsgen

import "errors"

// Sentinel errors. Every error returned by this package wraps exactly one of
// them; branch with errors.Is, never on the message.
var (
	// ErrInsufficientPool: a sample asked for more elements than its pool holds
	// (k > n, filler slots larger than the non-hidden pool, ...).
	ErrInsufficientPool = errors.New("hsgen: insufficient pool")

	// ErrInvariantViolation: an assembled instance has a subset not hit by H.
	// This is a generator defect, not a user error.
	ErrInvariantViolation = errors.New("hsgen: invariant violation")

	// ErrConfiguration: structurally inconsistent parameters.
	ErrConfiguration = errors.New("hsgen: configuration error")

	// ErrMalformedInstance: an instance or hidden-solution file could not be parsed.
	ErrMalformedInstance = errors.New("hsgen: malformed instance")
)
