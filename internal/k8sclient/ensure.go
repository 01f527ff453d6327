package k8sclient

import (
	"context"
	"strings"

	"github.com/imamik/k8shub/internal/reconcile"
)

// Ensure creates the object described by d unless it already exists.
func Ensure(ctx context.Context, c Client, d ResourceDescriptor) (reconcile.Action, error) {
	name := d.Name
	if d.Namespace != "" {
		name = d.Namespace + "/" + d.Name
	}

	_, action, err := (&reconcile.EnsureOperation[struct{}]{
		Name: name,
		Kind: strings.ToLower(d.Kind),
		Exists: func(ctx context.Context) (bool, error) {
			return c.Exists(ctx, d)
		},
		Create: func(ctx context.Context) (*reconcile.Operation, error) {
			return nil, c.Create(ctx, d)
		},
	}).Execute(ctx)
	return action, err
}

// EnsureAll ensures each descriptor in order and stops at the first failure.
func EnsureAll(ctx context.Context, c Client, descriptors ...ResourceDescriptor) error {
	for _, d := range descriptors {
		if _, err := Ensure(ctx, c, d); err != nil {
			return err
		}
	}
	return nil
}
