// Package clients provides the instrumented HTTP client used to reach the
// record source.
package clients

import "errors"

// Transport-level failures. Callers translate them into domain errors.
var (
	// ErrCircuitOpen is returned without contacting the downstream while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last transport error once every
	// attempt has failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
