package reliability

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ahrav/go-vigil/internal/configuration"
	"github.com/ahrav/go-vigil/internal/pubsub"
)

// Reliability composes circuit breaking, retry, and timeout racing into one
// call surface, and exposes independent access to each primitive. It owns
// the per-operation breaker registry; breakers are created lazily on first
// use and live for the process lifetime.
type Reliability struct {
	cfg    configuration.ReliabilityConfig
	logger *slog.Logger
	events *pubsub.Broker[Event]
	stats  *retryStats

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// Outcome is the result envelope returned by ExecuteWithFullReliability.
// It converts all failure kinds into data so batch callers can inspect
// failures without error handling at every call site.
type Outcome struct {
	// Success reports whether the composed call produced a result.
	Success bool `json:"success"`
	// Result is the work's return value when Success is true.
	Result any `json:"result,omitempty"`
	// Err is the terminal failure when Success is false.
	Err error `json:"-"`
	// Duration is the total wall-clock time of the composed call.
	Duration time.Duration `json:"duration"`
	// Attempts counts actual invocations of the work, including retries.
	// An admission rejection by an open circuit breaker happens before any
	// attempt and contributes zero.
	Attempts int `json:"attempts"`
}

// FullOptions carries the per-call overrides for ExecuteWithFullReliability.
// Nil fields select process-wide defaults; a zero Timeout falls back to the
// configured default, and a negative Timeout disables the timeout layer.
type FullOptions struct {
	CircuitBreaker *configuration.CircuitBreakerConfig
	Retry          *RetryPolicy
	Timeout        time.Duration
}

// New creates a reliability engine with the given defaults. Zero-value
// config fields are filled from the package defaults so a zero
// ReliabilityConfig is usable.
func New(cfg configuration.ReliabilityConfig, logger *slog.Logger) *Reliability {
	if logger == nil {
		logger = slog.Default()
	}
	applyReliabilityDefaults(&cfg)

	return &Reliability{
		cfg:      cfg,
		logger:   logger.With("component", "reliability"),
		events:   pubsub.NewBroker[Event](logger),
		stats:    &retryStats{},
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Subscribe registers a listener for reliability events and returns its
// unsubscribe handle.
func (r *Reliability) Subscribe(fn func(Event)) func() {
	return r.events.Subscribe(fn)
}

// ExecuteWithCircuitBreaker runs work under the named operation's circuit
// breaker, creating it on first use with override merged over the defaults.
// It publishes one success or one failure event per call; the work's own
// error propagates unchanged, and admission rejections surface as
// *CircuitOpenError.
func (r *Reliability) ExecuteWithCircuitBreaker(
	ctx context.Context,
	operation string,
	work Work,
	override *configuration.CircuitBreakerConfig,
) (any, error) {
	cb := r.breakerFor(operation, override)

	start := time.Now()
	result, err := cb.Execute(ctx, work)
	duration := time.Since(start)

	event := Event{
		Operation: operation,
		Status:    cb.Snapshot(),
		Duration:  duration,
		Timestamp: time.Now(),
	}
	if err != nil {
		event.Kind = EventFailure
		event.Err = err
		r.events.Publish(event)
		return nil, err
	}

	event.Kind = EventSuccess
	r.events.Publish(event)
	return result, nil
}

// ExecuteWithRetry re-invokes work with exponential backoff. A nil policy
// selects the configured defaults.
func (r *Reliability) ExecuteWithRetry(ctx context.Context, work Work, policy *RetryPolicy) (any, error) {
	return r.executeWithRetry(ctx, work, r.mergedPolicy(policy))
}

// ExecuteWithTimeout races work against the deadline, returning
// *TimeoutError if the deadline elapses first.
func (r *Reliability) ExecuteWithTimeout(ctx context.Context, work Work, timeout time.Duration) (any, error) {
	return executeWithTimeout(ctx, work, timeout)
}

// ExecuteWithFullReliability composes the three primitives as
// CircuitBreaker(Retry(Timeout(work))): the breaker wraps the retry loop,
// and each individual attempt races the per-attempt timeout. It never
// returns an error; all failures are folded into the Outcome envelope.
func (r *Reliability) ExecuteWithFullReliability(
	ctx context.Context,
	operation string,
	work Work,
	opts FullOptions,
) Outcome {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = r.cfg.Timeout
	}
	policy := r.mergedPolicy(opts.Retry)

	var attempts atomic.Int64
	attempt := func(ctx context.Context) (any, error) {
		attempts.Add(1)
		return executeWithTimeout(ctx, work, timeout)
	}
	retried := func(ctx context.Context) (any, error) {
		return r.executeWithRetry(ctx, attempt, policy)
	}

	start := time.Now()
	result, err := r.ExecuteWithCircuitBreaker(ctx, operation, retried, opts.CircuitBreaker)

	outcome := Outcome{
		Success:  err == nil,
		Duration: time.Since(start),
		Attempts: int(attempts.Load()),
	}
	if err != nil {
		outcome.Err = err
	} else {
		outcome.Result = result
	}
	return outcome
}

// CircuitBreakerStatus returns a snapshot for the named operation.
// An operation that was never executed reports the well-defined default:
// closed, zero counters, execution allowed.
func (r *Reliability) CircuitBreakerStatus(operation string) Status {
	r.mu.Lock()
	cb, ok := r.breakers[operation]
	r.mu.Unlock()

	if !ok {
		return Status{
			Operation:        operation,
			State:            StateClosed.String(),
			ExecutionAllowed: true,
		}
	}
	return cb.Snapshot()
}

// CircuitBreakerStats returns windowed call statistics for the named
// operation. The second return reports whether the breaker exists.
func (r *Reliability) CircuitBreakerStats(operation string) (WindowStats, bool) {
	r.mu.Lock()
	cb, ok := r.breakers[operation]
	r.mu.Unlock()

	if !ok {
		return WindowStats{}, false
	}
	return cb.Stats(), true
}

// ResetCircuitBreaker force-resets the named breaker and publishes a reset
// event. It returns false without side effects for unknown operations.
func (r *Reliability) ResetCircuitBreaker(operation string) bool {
	r.mu.Lock()
	cb, ok := r.breakers[operation]
	r.mu.Unlock()

	if !ok {
		return false
	}

	cb.ForceReset()
	r.events.Publish(Event{
		Kind:      EventReset,
		Operation: operation,
		Status:    cb.Snapshot(),
		Timestamp: time.Now(),
	})
	return true
}

// breakerFor returns the named breaker, creating it on first use with the
// override merged over the process-wide defaults. Overrides on an existing
// breaker are ignored; configuration is fixed at creation.
func (r *Reliability) breakerFor(operation string, override *configuration.CircuitBreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[operation]; ok {
		return cb
	}

	cfg := r.cfg.CircuitBreaker
	if override != nil {
		if override.FailureThreshold > 0 {
			cfg.FailureThreshold = override.FailureThreshold
		}
		if override.MinimumCalls > 0 {
			cfg.MinimumCalls = override.MinimumCalls
		}
		if override.ResetTimeout > 0 {
			cfg.ResetTimeout = override.ResetTimeout
		}
		if override.MonitoringWindow > 0 {
			cfg.MonitoringWindow = override.MonitoringWindow
		}
	}

	cb := newCircuitBreaker(operation, cfg, r.logger)
	r.breakers[operation] = cb
	return cb
}

// mergedPolicy overlays a per-call policy on the configured defaults.
// MaxAttempts is taken verbatim from an explicit policy: zero and negative
// values still make exactly one attempt rather than falling back to the
// default cap, preserving the executor's at-least-one-try semantics.
func (r *Reliability) mergedPolicy(policy *RetryPolicy) RetryPolicy {
	merged := policyFromConfig(r.cfg.Retry)
	if policy == nil {
		return merged
	}

	merged.MaxAttempts = policy.MaxAttempts
	if policy.InitialInterval > 0 {
		merged.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		merged.MaxInterval = policy.MaxInterval
	}
	if policy.Multiplier > 0 {
		merged.Multiplier = policy.Multiplier
	}
	if policy.RetryIf != nil {
		merged.RetryIf = policy.RetryIf
	}
	return merged
}

// applyReliabilityDefaults fills zero-value config fields in place.
func applyReliabilityDefaults(cfg *configuration.ReliabilityConfig) {
	cb := &cfg.CircuitBreaker
	if cb.FailureThreshold <= 0 {
		cb.FailureThreshold = configuration.DefaultFailureThreshold
	}
	if cb.MinimumCalls <= 0 {
		cb.MinimumCalls = configuration.DefaultMinimumCalls
	}
	if cb.ResetTimeout <= 0 {
		cb.ResetTimeout = configuration.DefaultResetTimeout
	}
	if cb.MonitoringWindow <= 0 {
		cb.MonitoringWindow = configuration.DefaultMonitoringWindow
	}

	rt := &cfg.Retry
	if rt.MaxAttempts == 0 {
		rt.MaxAttempts = configuration.DefaultMaxAttempts
	}
	if rt.InitialInterval <= 0 {
		rt.InitialInterval = configuration.DefaultInitialInterval
	}
	if rt.MaxInterval <= 0 {
		rt.MaxInterval = configuration.DefaultMaxInterval
	}
	if rt.Multiplier < 1.0 {
		rt.Multiplier = configuration.DefaultBackoffMultiplier
	}
}
