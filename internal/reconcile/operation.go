package reconcile

import (
	"context"
	"fmt"

	"github.com/imamik/k8shub/internal/util/retry"
)

// Status is the lifecycle state of an asynchronous cloud operation.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

// Operation is a handle to an in-flight cloud action.
type Operation struct {
	ID      string
	Target  string
	Status  Status
	Message string
}

// Finished reports whether the operation reached DONE or FAILED.
func (o *Operation) Finished() bool {
	return o.Status == StatusDone || o.Status == StatusFailed
}

// Failed reports whether the operation failed. A DONE operation carrying a
// status message counts as failed: the API call completed but the target
// reported an error.
func (o *Operation) Failed() bool {
	return o.Status == StatusFailed || (o.Status == StatusDone && o.Message != "")
}

// OperationError is returned for an operation that finished unsuccessfully.
type OperationError struct {
	Operation Operation
}

func (e *OperationError) Error() string {
	msg := e.Operation.Message
	if msg == "" {
		msg = "no status message"
	}
	return fmt.Sprintf("operation %s on %s finished with status %s: %s",
		e.Operation.ID, e.Operation.Target, e.Operation.Status, msg)
}

// RefreshFunc re-reads the current state of an operation.
type RefreshFunc func(ctx context.Context, op *Operation) (*Operation, error)

// Wait polls op with refresh until it finishes. Refresh errors and empty
// refresh results are transient; a failed operation is terminal.
func Wait(ctx context.Context, op *Operation, refresh RefreshFunc, opts retry.PollOptions) (*Operation, error) {
	if op == nil {
		return nil, nil
	}
	if opts.Resource == "" {
		opts.Resource = fmt.Sprintf("operation %s", op.ID)
	}

	current := op
	return retry.Await(ctx, func(ctx context.Context) (bool, *Operation, error) {
		if !current.Finished() {
			next, err := refresh(ctx, current)
			if err != nil {
				return false, nil, err
			}
			if next == nil {
				return false, nil, fmt.Errorf("refresh of operation %s returned no operation", current.ID)
			}
			current = next
		}
		if current.Failed() {
			return false, nil, retry.Fatal(&OperationError{Operation: *current})
		}
		return current.Finished(), current, nil
	}, opts)
}
