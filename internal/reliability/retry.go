package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-vigil/internal/configuration"
)

// RetryPolicy controls a retry loop. A nil policy selects the process-wide
// defaults; a nil RetryIf selects DefaultRetryable.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of invocations. Values <= 0 still
	// produce exactly one attempt: the attempt counter is 1-indexed and the
	// executor guarantees at-least-one-try semantics.
	MaxAttempts int
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the computed backoff.
	MaxInterval time.Duration
	// Multiplier grows the backoff exponentially between retries.
	Multiplier float64
	// RetryIf decides whether a failure is worth another attempt.
	RetryIf func(error) bool
}

// policyFromConfig builds a RetryPolicy from configuration defaults.
func policyFromConfig(cfg configuration.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
	}
}

// Backoff computes the delay before the retry following the given attempt:
// min(InitialInterval * Multiplier^(attempt-1), MaxInterval). Returns zero
// for non-positive attempt numbers.
func Backoff(attempt int, policy RetryPolicy) time.Duration {
	if attempt <= 0 {
		return 0
	}

	backoff := policy.InitialInterval
	if backoff <= 0 {
		backoff = time.Millisecond // Minimum 1ms to prevent hot looping.
	}

	multiplier := policy.Multiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}

	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * multiplier)
		if policy.MaxInterval > 0 && backoff > policy.MaxInterval {
			return policy.MaxInterval
		}
	}

	return backoff
}

// executeWithRetry re-invokes work with exponential backoff until it
// succeeds, the retry predicate declines, the attempt cap is reached, or
// the context is cancelled.
func (r *Reliability) executeWithRetry(ctx context.Context, work Work, policy RetryPolicy) (any, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryIf := policy.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryable
	}

	// Fail fast if the context is already cancelled to avoid wasted attempts.
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", errContextCancelledBeforeRetry, ctx.Err())
	default:
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := work(ctx)
		r.stats.totalAttempts.Add(1)

		if err == nil {
			if attempt > 1 {
				r.stats.successfulRetries.Add(1)
				r.logger.Info("operation succeeded after retry", "attempt", attempt)
			} else {
				r.stats.successfulFirstAttempts.Add(1)
			}
			return result, nil
		}

		lastErr = err

		if !retryIf(err) {
			r.logger.Debug("non-retryable error", "error", err, "attempt", attempt)
			return nil, err
		}

		// Prevent unnecessary backoff on the final attempt.
		if attempt == maxAttempts {
			break
		}

		backoff := Backoff(attempt, policy)
		r.logger.Debug("retrying after backoff",
			"attempt", attempt,
			"backoff", backoff,
			"error", err)

		// Wait with context cancellation to enable graceful shutdown.
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", errContextCancelledDuringRetry, ctx.Err())
		}
	}

	r.stats.failedRetries.Add(1)
	r.logger.Warn("operation failed after all attempts",
		"attempts", maxAttempts,
		"error", lastErr)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, maxAttempts, lastErr)
}
