package provisioning

import (
	"context"

	"github.com/imamik/k8shub/internal/bootstrap"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/provider"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	// Resolved configuration (populated by the resolve phase)
	Values  config.Values
	Cluster *config.Cluster

	// Cluster access (populated by the infrastructure and access phases)
	Endpoint   *provider.Endpoint
	Credential *provider.Credential
	Kube       k8sclient.Client

	// Bootstrap results
	Outcome *bootstrap.Outcome

	// Warnings are conditions that did not fail the run.
	Warnings []string
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Provider  provider.Name
	Adapter   provider.Adapter
	Schemas   *config.Schemas
	Request   config.Values
	Kube      KubeFactory
	Bootstrap Bootstrapper
	Observer  Observer
	Timeouts  *config.Timeouts
	State     *State
}

// Name returns the requested cluster name.
func (c *Context) Name() string {
	if c.State.Cluster != nil {
		return c.State.Cluster.Name
	}
	return c.Request.String("name")
}

// Warn records a non-fatal condition on the state and the observer.
func (c *Context) Warn(phase, message string) {
	c.State.Warnings = append(c.State.Warnings, message)
	LogWarning(c.Observer, phase, message)
}
