package reconcile

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/metrics"
	"github.com/imamik/k8shub/internal/util/retry"
)

// DeleteOperation removes a named resource if present. A missing resource is
// not an error.
type DeleteOperation struct {
	Name string
	Kind string

	Exists  func(ctx context.Context) (bool, error)
	Delete  func(ctx context.Context) (*Operation, error)
	Refresh RefreshFunc
	Poll    retry.PollOptions
}

// Execute deletes the resource and waits for the returned operation.
func (op *DeleteOperation) Execute(ctx context.Context) error {
	logger := log.FromContext(ctx).WithValues("kind", op.Kind, "name", op.Name)

	exists, err := op.Exists(ctx)
	if err != nil {
		return fmt.Errorf("delete %s %q: failed to check existence: %w", op.Kind, op.Name, err)
	}
	if !exists {
		logger.V(1).Info("resource not found, nothing to delete")
		metrics.RecordEnsure(op.Kind, "absent")
		return nil
	}

	logger.Info("deleting resource")
	pending, err := op.Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", op.Kind, op.Name, err)
	}
	if pending != nil && op.Refresh != nil {
		opts := op.Poll
		if opts.Resource == "" {
			opts.Resource = fmt.Sprintf("deletion of %s %s", op.Kind, op.Name)
		}
		if _, err := Wait(ctx, pending, op.Refresh, opts); err != nil {
			return fmt.Errorf("delete %s %q: %w", op.Kind, op.Name, err)
		}
	}
	metrics.RecordEnsure(op.Kind, "deleted")
	return nil
}
