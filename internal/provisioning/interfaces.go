package provisioning

import (
	"context"

	"github.com/imamik/k8shub/internal/bootstrap"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// KubeFactory builds a Kubernetes client for a provisioned cluster.
type KubeFactory func(cfg k8sclient.Config) (k8sclient.Client, error)

// Bootstrapper initializes a reachable cluster.
// Implemented by bootstrap.Driver.
type Bootstrapper interface {
	Run(ctx context.Context, kube k8sclient.Client, values config.Values) (*bootstrap.Outcome, error)
}
