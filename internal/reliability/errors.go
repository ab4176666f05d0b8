// Package reliability implements the failure-handling core: per-operation
// circuit breakers, retry with exponential backoff, timeout racing, and an
// orchestrator that composes the three into a single reliable call.
package reliability

import (
	"errors"
	"fmt"
	"time"
)

// Static errors for reliability operations.
var (
	// ErrRetriesExhausted wraps the final failure after all retry attempts are spent.
	ErrRetriesExhausted = errors.New("all retries exhausted")
	// errContextCancelledBeforeRetry is returned when the context is already
	// done before the first attempt.
	errContextCancelledBeforeRetry = errors.New("context cancelled before retry")
	// errContextCancelledDuringRetry is returned when the context is cancelled
	// while waiting out a backoff interval.
	errContextCancelledDuringRetry = errors.New("context cancelled during retry")
)

// CircuitOpenError indicates admission was denied because the named
// operation's circuit breaker is open. The wrapped operation was not invoked.
type CircuitOpenError struct {
	Operation   string    `json:"operation"`
	State       string    `json:"state"`
	NextAttempt time.Time `json:"next_attempt"`
}

// Error returns the formatted rejection with operation context.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for operation %q", e.Operation)
}

// TimeoutError is the synthetic failure produced when a unit of work loses
// the race against its deadline. The work itself may still be running; this
// error only records its abandonment.
type TimeoutError struct {
	Limit time.Duration `json:"limit"`
}

// Error returns the formatted timeout with the configured limit.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %v", e.Limit)
}

// Timeout marks the error as a timeout for net.Error-style checks.
func (e *TimeoutError) Timeout() bool { return true }
