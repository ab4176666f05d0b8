package reliability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahrav/go-vigil/internal/configuration"
)

// State represents the current state of a circuit breaker.
// The circuit breaker operates as a state machine with three possible states
// that control request flow based on the trailing-window failure rate.
type State int32

const (
	// StateClosed allows all executions through.
	StateClosed State = iota
	// StateOpen rejects executions without invoking the wrapped work.
	StateOpen
	// StateHalfOpen admits probes to test whether the operation recovered.
	StateHalfOpen
)

// String returns the string representation of the circuit state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Work is a unit of work submitted to the reliability primitives.
type Work func(ctx context.Context) (any, error)

// callRecord is one executed call in the breaker's trailing window.
type callRecord struct {
	at       time.Time
	success  bool
	duration time.Duration
}

// Status is a point-in-time snapshot of a circuit breaker.
type Status struct {
	// Operation is the name the breaker is registered under.
	Operation string `json:"operation"`
	// State is the current state name: "closed", "open", or "half-open".
	State string `json:"state"`
	// FailureCount and SuccessCount are counters since the last transition
	// into the closed state.
	FailureCount int `json:"failure_count"`
	SuccessCount int `json:"success_count"`
	// ExecutionAllowed reports whether an execution submitted now would be admitted.
	ExecutionAllowed bool `json:"execution_allowed"`
	// LastFailureTime is the wall-clock time of the most recent failure, if any.
	LastFailureTime time.Time `json:"last_failure_time"`
	// NextAttemptTime is when an open circuit will admit its next probe.
	// Zero unless the breaker is open.
	NextAttemptTime time.Time `json:"next_attempt_time"`
}

// WindowStats aggregates the calls currently inside the monitoring window.
type WindowStats struct {
	TotalCalls      int           `json:"total_calls"`
	SuccessCalls    int           `json:"success_calls"`
	FailureCalls    int           `json:"failure_calls"`
	AverageDuration time.Duration `json:"average_duration"`
}

// CircuitBreaker implements per-operation circuit breaking with windowed
// failure-rate detection. All state is guarded by a single mutex so the
// admission check and the post-call state mutation are atomic with respect
// to each other.
type CircuitBreaker struct {
	name   string
	cfg    configuration.CircuitBreakerConfig
	logger *slog.Logger

	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	history         []callRecord
	lastFailureTime time.Time
	nextAttemptTime time.Time
}

// newCircuitBreaker creates a closed breaker for the named operation.
func newCircuitBreaker(name string, cfg configuration.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		logger: logger.With("component", "circuit_breaker", "operation", name),
		state:  StateClosed,
	}
}

// Execute runs work under the breaker's admission control. Open circuits
// reject with *CircuitOpenError without invoking work; admitted calls have
// their outcome and duration recorded against the trailing window, and the
// work's own error propagates to the caller unchanged.
func (cb *CircuitBreaker) Execute(ctx context.Context, work Work) (any, error) {
	if err := cb.admit(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := work(ctx)
	cb.record(time.Since(start), err == nil)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// admit applies the state machine's admission rule. An open breaker whose
// reset timeout has elapsed transitions to half-open and admits the call.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return nil

	case StateOpen:
		if time.Now().Before(cb.nextAttemptTime) {
			return &CircuitOpenError{
				Operation:   cb.name,
				State:       cb.state.String(),
				NextAttempt: cb.nextAttemptTime,
			}
		}
		cb.transitionTo(StateHalfOpen)
		return nil

	default:
		return &CircuitOpenError{Operation: cb.name, State: cb.state.String()}
	}
}

// record appends the call to the window and drives state transitions.
func (cb *CircuitBreaker) record(duration time.Duration, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.history = append(cb.history, callRecord{at: now, success: success, duration: duration})
	cb.pruneLocked(now)

	if success {
		cb.successes++
		if cb.state == StateHalfOpen {
			// Probe succeeded: the operation recovered.
			cb.resetLocked()
		}
		return
	}

	cb.failures++
	cb.lastFailureTime = now

	switch cb.state {
	case StateHalfOpen:
		cb.transitionTo(StateOpen)
	case StateClosed:
		if cb.shouldOpenLocked() {
			cb.transitionTo(StateOpen)
		}
	case StateOpen:
		// Already open; nothing further to do.
	}
}

// shouldOpenLocked computes the windowed failure rate. The window was pruned
// by the caller, so the slice reflects only the trailing monitoring window.
func (cb *CircuitBreaker) shouldOpenLocked() bool {
	total := len(cb.history)
	if total < cb.cfg.MinimumCalls {
		return false
	}

	failures := 0
	for _, rec := range cb.history {
		if !rec.success {
			failures++
		}
	}

	return float64(failures)/float64(total) >= cb.cfg.FailureThreshold
}

// pruneLocked drops window entries older than the monitoring window.
func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.cfg.MonitoringWindow)
	idx := 0
	for idx < len(cb.history) && cb.history[idx].at.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		cb.history = append(cb.history[:0], cb.history[idx:]...)
	}
}

// transitionTo changes state and maintains the nextAttemptTime invariant:
// it is set only while open and cleared on any transition away from open.
func (cb *CircuitBreaker) transitionTo(newState State) {
	oldState := cb.state
	if oldState == newState {
		return
	}
	cb.state = newState

	switch newState {
	case StateOpen:
		cb.nextAttemptTime = time.Now().Add(cb.cfg.ResetTimeout)
	case StateClosed, StateHalfOpen:
		cb.nextAttemptTime = time.Time{}
	}

	cb.logger.Info("circuit breaker state transition",
		"from", oldState.String(),
		"to", newState.String())
}

// resetLocked returns the breaker to closed with all counters zeroed.
func (cb *CircuitBreaker) resetLocked() {
	cb.transitionTo(StateClosed)
	cb.failures = 0
	cb.successes = 0
	cb.history = cb.history[:0]
	cb.lastFailureTime = time.Time{}
	cb.nextAttemptTime = time.Time{}
}

// ForceReset unconditionally returns the breaker to closed with zeroed
// counters. Intended for operator use.
func (cb *CircuitBreaker) ForceReset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.resetLocked()
	cb.logger.Info("circuit breaker force reset")
}

// Snapshot returns the breaker's current status without mutating state.
func (cb *CircuitBreaker) Snapshot() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	allowed := true
	if cb.state == StateOpen {
		allowed = !time.Now().Before(cb.nextAttemptTime)
	}

	return Status{
		Operation:        cb.name,
		State:            cb.state.String(),
		FailureCount:     cb.failures,
		SuccessCount:     cb.successes,
		ExecutionAllowed: allowed,
		LastFailureTime:  cb.lastFailureTime,
		NextAttemptTime:  cb.nextAttemptTime,
	}
}

// Stats aggregates the calls currently inside the monitoring window.
func (cb *CircuitBreaker) Stats() WindowStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.pruneLocked(time.Now())

	stats := WindowStats{TotalCalls: len(cb.history)}
	var total time.Duration
	for _, rec := range cb.history {
		if rec.success {
			stats.SuccessCalls++
		} else {
			stats.FailureCalls++
		}
		total += rec.duration
	}
	if stats.TotalCalls > 0 {
		stats.AverageDuration = total / time.Duration(stats.TotalCalls)
	}

	return stats
}
