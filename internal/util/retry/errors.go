package retry

import (
	"errors"
	"fmt"
	"time"
)

// FatalError wraps an error to mark it as terminal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as terminal.
// Pollers and backoff loops stop as soon as they see one.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is terminal.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}

// TimeoutError is returned when a poll deadline elapses before the awaited
// condition became true. The target may still converge later.
type TimeoutError struct {
	Resource string
	Timeout  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v waiting for %s (%d checks)", e.Timeout, e.Resource, e.Attempts)
}

// ExhaustedRetriesError is returned when a check kept failing transiently
// more often than the poll allows.
type ExhaustedRetriesError struct {
	Resource string
	Retries  int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("gave up waiting for %s after %d transient errors: %v", e.Resource, e.Retries, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

// IsTimeout reports whether err carries a TimeoutError.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}
