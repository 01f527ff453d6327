package reconcile

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/metrics"
	"github.com/imamik/k8shub/internal/util/retry"
)

// Action describes what Execute did.
type Action string

const (
	ActionExists  Action = "exists"
	ActionCreated Action = "created"
)

// EnsureOperation encapsulates check-then-create logic for one named resource.
//
// Usage example:
//
//	cluster, _, err := (&reconcile.EnsureOperation[*container.Cluster]{
//	    Name:    name,
//	    Kind:    "cluster",
//	    Exists:  func(ctx context.Context) (bool, error) { return a.cloud.ClusterExists(ctx, name) },
//	    Get:     func(ctx context.Context) (*container.Cluster, error) { return a.cloud.GetCluster(ctx, name) },
//	    Create:  func(ctx context.Context) (*reconcile.Operation, error) { return a.cloud.CreateCluster(ctx, req) },
//	    Refresh: a.cloud.Operation,
//	    Poll:    retry.PollOptions{Interval: 10 * time.Second, Timeout: 15 * time.Minute, MaxTransientRetries: 10},
//	}).Execute(ctx)
type EnsureOperation[T any] struct {
	Name string
	Kind string

	// Exists reports whether the resource is already present.
	Exists func(ctx context.Context) (bool, error)

	// Get reads the current resource. Optional.
	Get func(ctx context.Context) (T, error)

	// Create starts creation. A nil Operation means creation was synchronous.
	Create func(ctx context.Context) (*Operation, error)

	// Refresh re-reads a pending operation. Required when Create returns one.
	Refresh RefreshFunc

	// Poll configures the wait on the create operation.
	Poll retry.PollOptions
}

// Execute ensures the resource exists and returns it.
func (op *EnsureOperation[T]) Execute(ctx context.Context) (T, Action, error) {
	var zero T
	logger := log.FromContext(ctx).WithValues("kind", op.Kind, "name", op.Name)

	exists, err := op.Exists(ctx)
	if err != nil {
		metrics.RecordEnsure(op.Kind, "failed")
		return zero, "", op.wrap(fmt.Errorf("failed to check existence: %w", err))
	}

	action := ActionExists
	if exists {
		logger.V(1).Info("resource already exists, skipping creation")
	} else {
		logger.Info("creating resource")
		pending, err := op.Create(ctx)
		if err != nil {
			metrics.RecordEnsure(op.Kind, "failed")
			return zero, "", op.wrap(fmt.Errorf("failed to create: %w", err))
		}

		if pending != nil {
			if op.Refresh == nil {
				return zero, "", op.wrap(fmt.Errorf("operation %s returned without a way to refresh it", pending.ID))
			}
			opts := op.Poll
			if opts.Resource == "" {
				opts.Resource = fmt.Sprintf("%s %s", op.Kind, op.Name)
			}
			logger.Info("waiting for operation", "operation", pending.ID)
			if _, err := Wait(ctx, pending, op.Refresh, opts); err != nil {
				metrics.RecordEnsure(op.Kind, "failed")
				return zero, "", op.wrap(err)
			}
		}
		action = ActionCreated
	}

	metrics.RecordEnsure(op.Kind, string(action))
	if op.Get == nil {
		return zero, action, nil
	}

	resource, err := op.Get(ctx)
	if err != nil {
		return zero, action, op.wrap(fmt.Errorf("failed to read back: %w", err))
	}
	return resource, action, nil
}

func (op *EnsureOperation[T]) wrap(err error) error {
	return fmt.Errorf("ensure %s %q: %w", op.Kind, op.Name, err)
}
