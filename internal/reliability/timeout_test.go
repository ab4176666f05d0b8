package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithTimeout_FastWorkWins(t *testing.T) {
	result, err := executeWithTimeout(context.Background(), func(context.Context) (any, error) {
		time.Sleep(10 * time.Millisecond)
		return "done", nil
	}, 100*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "done", result)
}

func TestExecuteWithTimeout_SlowWorkLoses(t *testing.T) {
	settledLate := make(chan struct{})
	_, err := executeWithTimeout(context.Background(), func(context.Context) (any, error) {
		time.Sleep(150 * time.Millisecond)
		close(settledLate)
		return "too late", nil
	}, 50*time.Millisecond)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Limit)
	assert.True(t, timeoutErr.Timeout())

	// The abandoned work still runs to completion in the background.
	select {
	case <-settledLate:
	case <-time.After(time.Second):
		t.Fatal("abandoned work never settled")
	}
}

func TestExecuteWithTimeout_WorkErrorPropagatesUnchanged(t *testing.T) {
	failure := errors.New("upstream failure")
	_, err := executeWithTimeout(context.Background(), func(context.Context) (any, error) {
		return nil, failure
	}, 100*time.Millisecond)

	assert.ErrorIs(t, err, failure)
}

func TestExecuteWithTimeout_NonPositiveTimeoutDisablesRace(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		result, err := executeWithTimeout(context.Background(), func(context.Context) (any, error) {
			time.Sleep(20 * time.Millisecond)
			return "unraced", nil
		}, timeout)

		require.NoError(t, err)
		assert.Equal(t, "unraced", result)
	}
}

func TestExecuteWithTimeout_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := executeWithTimeout(ctx, func(context.Context) (any, error) {
		time.Sleep(time.Second)
		return nil, nil
	}, 10*time.Second)

	assert.ErrorIs(t, err, context.Canceled)
}
