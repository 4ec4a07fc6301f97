// Package pkgerrors holds the small sentinel error taxonomy shared
// across components, checked with errors.Is/errors.As the way the
// teacher's internal/riot package distinguishes rate-limit responses
// from hard upstream failures.
package pkgerrors

import "errors"

var (
	// ErrNotFound marks a resource absent upstream or in the store —
	// a terminal condition, never retried.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited marks a 429-class upstream response. The client
	// backs off and retries; once its retries are spent the error
	// reaches the caller, and a worker handler that returns it has its
	// message nacked to the dead-letter queue like any other error.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstream marks a 5xx or transport failure talking to the
	// upstream API. Retryable, eventually dead-lettered if persistent.
	ErrUpstream = errors.New("upstream error")

	// ErrPoisonMessage marks a broker message that can never succeed
	// (malformed payload, permanently missing dependency) and should
	// be dead-lettered without retry.
	ErrPoisonMessage = errors.New("poison message")
)
