package retry

import (
	"context"
	"time"

	"github.com/imamik/k8shub/internal/metrics"
)

// BackoffOptions configures Backoff. Attempts made are MaxRetries+1.
type BackoffOptions struct {
	Resource     string
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option adjusts BackoffOptions.
type Option func(*BackoffOptions)

func WithResource(name string) Option {
	return func(o *BackoffOptions) { o.Resource = name }
}

func WithMaxRetries(n int) Option {
	return func(o *BackoffOptions) { o.MaxRetries = n }
}

func WithInitialDelay(d time.Duration) Option {
	return func(o *BackoffOptions) { o.InitialDelay = d }
}

// WithMaxDelay caps the delay between two attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(o *BackoffOptions) { o.MaxDelay = d }
}

func WithMultiplier(m float64) Option {
	return func(o *BackoffOptions) { o.Multiplier = m }
}

// Backoff runs op until it succeeds, sleeping an exponentially growing delay
// between attempts. A Fatal error from op is returned as is. When the retries
// run out the result is an ExhaustedRetriesError wrapping op's last error.
func Backoff(ctx context.Context, op func(context.Context) error, opts ...Option) error {
	o := BackoffOptions{
		Resource:     "operation",
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
	for _, opt := range opts {
		opt(&o)
	}

	delay := o.InitialDelay
	for retries := 0; ; retries++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			metrics.RecordPoll("terminal")
			return err
		}
		metrics.RecordPoll("transient")
		if retries == o.MaxRetries {
			return &ExhaustedRetriesError{Resource: o.Resource, Retries: retries + 1, Last: err}
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = min(time.Duration(float64(delay)*o.Multiplier), o.MaxDelay)
	}
}

// sleep waits for d or until ctx ends, returning ctx.Err() in the latter case.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
