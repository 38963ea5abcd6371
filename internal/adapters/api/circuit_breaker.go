package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/kestrel-systems/fleetcore/internal/domain/shared"
)

// CircuitState is one state in the breaker's closed/open/half-open cycle.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitOpenError is the transient-remote error spec.md §7 has the API
// client absorb on its own: repeated 5xx/rate-limit failures trip the
// breaker, and callers see this instead of hammering a failing endpoint.
// Matches the typed-error idiom client.go already uses for APIError.
type CircuitOpenError struct {
	Failures   int
	OpenedAt   time.Time
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open after %d consecutive failures, retry in %s", e.Failures, e.RetryAfter)
}

// CircuitBreaker guards the client's retry loop: after maxFailures
// consecutive request failures it stops calling out entirely for timeout,
// then allows one probe call (half-open) to decide whether to close again.
type CircuitBreaker struct {
	maxFailures     int
	timeout         time.Duration
	state           CircuitState
	failureCount    int
	lastFailureTime time.Time
	mu              sync.Mutex
	clock           shared.Clock
}

// NewCircuitBreaker builds a breaker with the given threshold/timeout. A
// nil clock defaults to the real wall clock; tests inject a fake one.
func NewCircuitBreaker(maxFailures int, timeout time.Duration, clock shared.Clock) *CircuitBreaker {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CircuitBreaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		state:       CircuitClosed,
		clock:       clock,
	}
}

// Call runs fn under breaker protection, returning *CircuitOpenError
// without calling fn if the breaker is tripped and still cooling down.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == CircuitOpen {
		elapsed := cb.clock.Now().Sub(cb.lastFailureTime)
		if elapsed >= cb.timeout {
			cb.state = CircuitHalfOpen
		} else {
			failures, opened := cb.failureCount, cb.lastFailureTime
			cb.mu.Unlock()
			return &CircuitOpenError{Failures: failures, OpenedAt: opened, RetryAfter: cb.timeout - elapsed}
		}
	}
	cb.mu.Unlock()

	// fn runs its own retries/backoff without holding the lock, so a slow
	// request doesn't block unrelated concurrent calls from observing state.
	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	cb.lastFailureTime = cb.clock.Now()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		return
	}
	if cb.failureCount >= cb.maxFailures {
		cb.state = CircuitOpen
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failureCount = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
	}
}
