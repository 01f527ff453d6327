package gke

import (
	"context"
	"strings"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/container/v1"

	"github.com/imamik/k8shub/internal/reconcile"
)

// fromContainerOperation maps a container operation onto reconcile.Operation.
// GKE reports failures of a DONE operation in its status message or error.
func fromContainerOperation(op *container.Operation) *reconcile.Operation {
	out := &reconcile.Operation{
		ID:     op.Name,
		Target: op.TargetLink,
		Status: containerStatus(op.Status),
	}
	switch {
	case op.Error != nil && op.Error.Message != "":
		out.Message = op.Error.Message
	case op.StatusMessage != "": //nolint:staticcheck // still populated for failed cluster operations
		out.Message = op.StatusMessage //nolint:staticcheck // see above
	}
	return out
}

func containerStatus(s string) reconcile.Status {
	switch s {
	case "DONE":
		return reconcile.StatusDone
	case "PENDING":
		return reconcile.StatusPending
	default:
		return reconcile.StatusRunning
	}
}

// fromComputeOperation maps a compute operation onto reconcile.Operation.
func fromComputeOperation(op *compute.Operation) *reconcile.Operation {
	out := &reconcile.Operation{
		ID:     op.Name,
		Target: op.TargetLink,
		Status: containerStatus(op.Status),
	}
	if op.Error != nil && len(op.Error.Errors) > 0 {
		msgs := make([]string, 0, len(op.Error.Errors))
		for _, e := range op.Error.Errors {
			msgs = append(msgs, e.Message)
		}
		out.Message = strings.Join(msgs, "; ")
	}
	return out
}

func (a *Adapter) refreshCluster(ctx context.Context, op *reconcile.Operation) (*reconcile.Operation, error) {
	next, err := a.api.GetClusterOperation(ctx, op.ID)
	if err != nil {
		return nil, err
	}
	return fromContainerOperation(next), nil
}

// refreshCompute re-reads a compute operation. Router patches run in the
// region, firewall inserts globally; the target link tells them apart.
func (a *Adapter) refreshCompute(ctx context.Context, op *reconcile.Operation) (*reconcile.Operation, error) {
	lookup := &compute.Operation{Name: op.ID}
	if strings.Contains(op.Target, "/regions/") {
		lookup.Region = a.region
	}
	next, err := a.api.GetComputeOperation(ctx, lookup)
	if err != nil {
		return nil, err
	}
	return fromComputeOperation(next), nil
}
