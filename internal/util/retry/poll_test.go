package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwait_DoneImmediately(t *testing.T) {
	t.Parallel()
	calls := 0
	got, err := Await(context.Background(), func(context.Context) (bool, string, error) {
		calls++
		return true, "ready", nil
	}, PollOptions{Resource: "thing", Interval: 10 * time.Millisecond, Timeout: time.Second})

	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, 1, calls)
}

func TestAwait_Timeout(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	start := time.Now()

	_, err := Await(context.Background(), func(context.Context) (bool, struct{}, error) {
		calls.Add(1)
		return false, struct{}{}, nil
	}, PollOptions{Resource: "job kube-system/bootstrap", Interval: 10 * time.Millisecond, Timeout: 50 * time.Millisecond})

	elapsed := time.Since(start)
	require.Error(t, err)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "job kube-system/bootstrap", timeoutErr.Resource)
	assert.Contains(t, err.Error(), "job kube-system/bootstrap")
	assert.LessOrEqual(t, elapsed, 100*time.Millisecond)
	assert.GreaterOrEqual(t, int(calls.Load()), 4)
}

func TestAwait_TerminalErrorStopsImmediately(t *testing.T) {
	t.Parallel()
	calls := 0
	boom := errors.New("operation FAILED")

	_, err := Await(context.Background(), func(context.Context) (bool, int, error) {
		calls++
		return false, 0, Fatal(boom)
	}, PollOptions{Resource: "op", Interval: time.Millisecond, Timeout: time.Second, MaxTransientRetries: 5})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, calls)
}

func TestAwait_TransientErrorsUpToLimit(t *testing.T) {
	t.Parallel()
	const maxRetries = 3
	calls := 0

	got, err := Await(context.Background(), func(context.Context) (bool, int, error) {
		calls++
		if calls <= maxRetries {
			return false, 0, errors.New("connection reset")
		}
		return true, 42, nil
	}, PollOptions{Resource: "op", Interval: time.Millisecond, Timeout: time.Second, MaxTransientRetries: maxRetries})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, maxRetries+1, calls)
}

func TestAwait_TransientErrorsExhausted(t *testing.T) {
	t.Parallel()
	calls := 0
	last := errors.New("connection reset")

	_, err := Await(context.Background(), func(context.Context) (bool, int, error) {
		calls++
		return false, 0, last
	}, PollOptions{Resource: "operation op-1", Interval: time.Millisecond, Timeout: time.Second, MaxTransientRetries: 2})

	var exhausted *ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Retries)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
}

func TestAwait_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Await(ctx, func(context.Context) (bool, int, error) {
		calls++
		cancel()
		return false, 0, nil
	}, PollOptions{Resource: "op", Interval: time.Second})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestAwait_ContextDeadlineIsTimeout(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Await(ctx, func(context.Context) (bool, int, error) {
		return false, 0, nil
	}, PollOptions{Resource: "ingress loki/loki-grafana", Interval: 5 * time.Millisecond})

	assert.True(t, IsTimeout(err))
}
