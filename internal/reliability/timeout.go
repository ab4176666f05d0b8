package reliability

import (
	"context"
	"time"
)

// settled carries the outcome of a raced unit of work.
type settled struct {
	result any
	err    error
}

// executeWithTimeout races work against a deadline. Whichever settles first
// wins: a timer expiry produces *TimeoutError and the work's eventual
// settlement is discarded, though the work itself is not cancelled and runs
// to completion in the background. A non-positive timeout disables the race.
func executeWithTimeout(ctx context.Context, work Work, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		return work(ctx)
	}

	// Buffered so the abandoned goroutine can settle and exit.
	done := make(chan settled, 1)
	go func() {
		result, err := work(ctx)
		done <- settled{result: result, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s := <-done:
		return s.result, s.err
	case <-timer.C:
		return nil, &TimeoutError{Limit: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
