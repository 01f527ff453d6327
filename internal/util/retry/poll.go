package retry

import (
	"context"
	"errors"
	"time"

	"github.com/imamik/k8shub/internal/metrics"
)

// CheckFunc is evaluated on every poll. It returns done=true together with the
// awaited value once the condition holds.
type CheckFunc[T any] func(ctx context.Context) (done bool, value T, err error)

// PollOptions configures Await.
type PollOptions struct {
	Resource            string        // Name used in errors, e.g. "job kube-system/bootstrap"
	Interval            time.Duration // Fixed delay between checks
	Timeout             time.Duration // Overall deadline; zero means only ctx bounds the wait
	MaxTransientRetries int           // Transient errors tolerated before giving up
}

// Await calls check until it reports done, the timeout elapses, the context
// ends, or check returns a Fatal error. The first check runs immediately.
//
// Non-fatal errors are counted as transient. Once more than MaxTransientRetries
// have been seen, Await returns an ExhaustedRetriesError. Infrastructure that
// already exists is never touched on failure.
func Await[T any](ctx context.Context, check CheckFunc[T], opts PollOptions) (T, error) {
	var zero T

	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}

	var deadline time.Time
	if opts.Timeout > 0 {
		deadline = time.Now().Add(opts.Timeout)
	}

	attempts, transient := 0, 0
	for {
		attempts++
		done, value, err := check(ctx)
		switch {
		case err != nil && IsFatal(err):
			metrics.RecordPoll("terminal")
			return zero, err
		case err != nil:
			metrics.RecordPoll("transient")
			transient++
			if transient > opts.MaxTransientRetries {
				return zero, &ExhaustedRetriesError{Resource: opts.Resource, Retries: transient, Last: err}
			}
		case done:
			metrics.RecordPoll("done")
			return value, nil
		default:
			metrics.RecordPoll("pending")
		}

		wait := opts.Interval
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return zero, &TimeoutError{Resource: opts.Resource, Timeout: opts.Timeout, Attempts: attempts}
			}
			if remaining < wait {
				wait = remaining
			}
		}

		if err := sleep(ctx, wait); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return zero, &TimeoutError{Resource: opts.Resource, Timeout: opts.Timeout, Attempts: attempts}
			}
			return zero, err
		}
	}
}
