// Package apperr defines the error taxonomy shared across the payment
// intermediary: queue/ledger storage errors, processor outcomes, and the
// queue-decoding failure mode. Components check these with errors.Is rather
// than comparing error strings.
package apperr

import "errors"

var (
	// ErrStoreUnavailable means the backing Redis store could not be
	// reached. Callers retry locally; ingress surfaces this as a 500.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMalformed means a queue entry could not be decoded. The entry is
	// discarded by the caller, not retried.
	ErrMalformed = errors.New("malformed queue entry")

	// ErrAlreadyPresent means a ledger save lost a race with a concurrent
	// save for the same correlation id.
	ErrAlreadyPresent = errors.New("payment already present")

	// ErrDuplicate means a payment was already processed; the caller drops
	// the message silently.
	ErrDuplicate = errors.New("duplicate payment")

	// ErrBreakerOpen means a circuit breaker short-circuited the call
	// without contacting the processor.
	ErrBreakerOpen = errors.New("circuit breaker open")

	// ErrProcessorReject means the processor returned 4xx: the caller's
	// bug, not a transient condition, no safe retry.
	ErrProcessorReject = errors.New("processor rejected payment")

	// ErrProcessorTransient means the processor returned 5xx, timed out, or
	// the connection failed.
	ErrProcessorTransient = errors.New("processor transient failure")

	// ErrClient means the ingress payload was invalid.
	ErrClient = errors.New("invalid client request")
)
