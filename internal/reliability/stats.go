package reliability

import (
	"sync/atomic"
)

// retryStats provides thread-safe retry metrics using atomic operations.
type retryStats struct {
	totalAttempts           atomic.Int64 // Work invocations across all retried calls
	successfulFirstAttempts atomic.Int64 // Calls that succeeded without retrying
	successfulRetries       atomic.Int64 // Calls that succeeded after one or more retries
	failedRetries           atomic.Int64 // Calls that failed after exhausting all attempts
}

// RetryStats holds aggregated metrics for retry executor activity.
// It provides a snapshot of retry behavior for monitoring and observability.
type RetryStats struct {
	// TotalAttempts is the total number of work invocations, including
	// initial attempts and all retries.
	TotalAttempts int64 `json:"total_attempts"`
	// SuccessfulFirstAttempts is the count of calls that succeeded without retrying.
	SuccessfulFirstAttempts int64 `json:"successful_first_attempts"`
	// SuccessfulRetries is the count of calls that succeeded only after one or more retries.
	SuccessfulRetries int64 `json:"successful_retries"`
	// FailedRetries is the count of calls that failed after exhausting all attempts.
	FailedRetries int64 `json:"failed_retries"`
	// AverageAttempts is the average number of attempts per call.
	AverageAttempts float64 `json:"average_attempts"`
}

// RetryStats returns a snapshot of the retry statistics for this instance.
func (r *Reliability) RetryStats() RetryStats {
	totalAttempts := r.stats.totalAttempts.Load()
	first := r.stats.successfulFirstAttempts.Load()
	retried := r.stats.successfulRetries.Load()
	failed := r.stats.failedRetries.Load()

	averageAttempts := 1.0
	if totalCalls := first + retried + failed; totalCalls > 0 {
		averageAttempts = float64(totalAttempts) / float64(totalCalls)
	}

	return RetryStats{
		TotalAttempts:           totalAttempts,
		SuccessfulFirstAttempts: first,
		SuccessfulRetries:       retried,
		FailedRetries:           failed,
		AverageAttempts:         averageAttempts,
	}
}
