// Package clients provides the instrumented HTTP client used to reach
// downstream services such as the book catalog.
package clients

import "errors"

// Transport-level failures. The acl package translates them into domain
// errors before they reach the application.
var (
	// ErrCircuitOpen means the breaker is rejecting calls to the service.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is used.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
