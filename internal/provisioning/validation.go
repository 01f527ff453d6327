package provisioning

import (
	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
)

// ValidationPhase implements the Phase interface for pre-flight validation.
// The structural checks run first and make no network calls; the adapter
// checks run against the provider account. Nothing is created either way.
type ValidationPhase struct{}

// NewValidationPhase creates a new validation phase.
func NewValidationPhase() *ValidationPhase {
	return &ValidationPhase{}
}

// Name implements the Phase interface.
func (vp *ValidationPhase) Name() string {
	return "validation"
}

// Provision implements the Phase interface.
func (vp *ValidationPhase) Provision(ctx *Context) error {
	report := ctx.Schemas.Check(ctx.Provider.String(), ctx.State.Values)
	for _, warning := range report.Warnings() {
		ctx.Warn(vp.Name(), warning)
	}
	if err := report.Err(); err != nil {
		return err
	}

	cluster, err := config.Decode(ctx.State.Values)
	if err != nil {
		return err
	}
	ctx.State.Cluster = cluster

	if err := ctx.Adapter.Validate(ctx, cluster); err != nil {
		if clustererr.IsConfiguration(err) {
			return err
		}
		return &clustererr.ConfigurationError{Err: err}
	}
	return nil
}
