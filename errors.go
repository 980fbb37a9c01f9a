package relaykit

import "errors"

var (
	// ErrValidation wraps synchronous input validation failures on
	// Publish and Update. These are caller bugs, raised before any
	// network I/O and never retried.
	ErrValidation = errors.New("validation failed")

	// ErrConfigFetch wraps failures to fetch or parse the client
	// configuration snapshot.
	ErrConfigFetch = errors.New("client config fetch failed")

	// Configuration errors raised at construction.
	ErrBaseURLRequired = errors.New("base url is required")
	ErrKeyRequired     = errors.New("api key is required")
	ErrSecretRequired  = errors.New("api secret is required")
)
