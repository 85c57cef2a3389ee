package domain

import "errors"

var (
	// ErrConfiguration marks invalid pipeline parameters, e.g. a chunk
	// overlap that is not smaller than the chunk size. Caller bug; not
	// retried.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrProviderUnavailable marks an embedding or language-model
	// provider that could not serve the request, including exhausted
	// rate-limit retries and malformed vectors.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited marks a transient provider rejection. Retried
	// internally up to a bound before surfacing as ErrProviderUnavailable.
	ErrRateLimited = errors.New("rate limited")

	// ErrDimensionMismatch marks vectors of disagreeing dimensions.
	// Indicates a deployment misconfiguration; not retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
