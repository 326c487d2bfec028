// Package breaker wraps sony/gobreaker per processor, generalizing the
// single hardcoded "MTN-Breaker" the teacher built in main.go into one
// constructor shared by both processors, per spec.md §4.5 (C5).
package breaker

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
)

// Outcome classifies the result of the function run through the breaker.
// A Reject outcome (the processor's 4xx) is deliberately NOT counted as a
// breaker failure, per spec.md §4.5: "Client errors (4xx) MUST be treated
// as operational failures of the caller, not processor failures, and must
// not trip the breaker."
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeReject
	OutcomeTransient
)

// Settings configures the failure-ratio/cooldown contract from spec.md
// §4.5.
type Settings struct {
	Name             string
	FailureRatio     float64       // default 0.5
	MinRequests      int64         // default 20
	Cooldown         time.Duration // default 30s
	HalfOpenRequests uint32        // default 1
}

// DefaultSettings returns spec.md §4.5's defaults for the named processor.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		FailureRatio:     0.5,
		MinRequests:      20,
		Cooldown:         30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// Breaker is a per-processor circuit breaker, cheap to share across
// concurrent callers — internal state lives in the wrapped
// *gobreaker.CircuitBreaker, which is itself safe for concurrent use.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// New builds a Breaker from Settings, translating spec.md's failure-ratio
// contract into gobreaker's ReadyToTrip hook, the same shape the teacher
// used for its single MTN breaker.
func New(settings Settings) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		// Periodically clear the Closed-state counts so the failure ratio
		// reflects a recent window rather than the breaker's entire
		// lifetime, matching the teacher's main.go breaker settings.
		Interval:    5 * time.Second,
		Timeout:     settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if int64(counts.Requests) < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})
	return &Breaker{name: settings.Name, cb: cb}
}

// Call runs fn through the breaker. fn returns the Outcome of its attempt
// and, for OutcomeTransient, the underlying error. Call returns
// apperr.ErrBreakerOpen if the breaker short-circuited the call without
// running fn.
func (b *Breaker) Call(_ context.Context, fn func() (Outcome, error)) (Outcome, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		outcome, ferr := fn()
		if outcome == OutcomeTransient {
			return outcome, ferr
		}
		// Success and Reject both count as breaker successes: a 4xx never
		// trips the breaker.
		return outcome, nil
	})

	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return OutcomeTransient, apperr.ErrBreakerOpen
	}
	if err != nil {
		return OutcomeTransient, fmt.Errorf("%w: %v", apperr.ErrProcessorTransient, err)
	}
	return result.(Outcome), nil
}

// State reports the breaker's current state as a string ("closed", "open",
// "half-open"), exposed through the router's BreakerState for diagnostics.
// The router's veto in spec.md §4.4 uses IsOpen.
func (b *Breaker) State() string {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// IsOpen reports whether the breaker is currently vetoing calls.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}
