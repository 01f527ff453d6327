package provisioning

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/bootstrap"
	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/metrics"
	"github.com/imamik/k8shub/internal/provider"
)

// Agent provisions and destroys clusters through provider adapters. It keeps
// no per-cluster state and is safe for concurrent use across cluster names.
type Agent struct {
	schemas   *config.Schemas
	adapters  map[provider.Name]provider.Adapter
	kube      KubeFactory
	bootstrap Bootstrapper
	observer  Observer
	timeouts  *config.Timeouts
}

// Option configures an Agent.
type Option func(*Agent)

// WithKubeFactory replaces how Kubernetes clients are built.
func WithKubeFactory(f KubeFactory) Option {
	return func(a *Agent) { a.kube = f }
}

// WithBootstrapper replaces the bootstrap driver.
func WithBootstrapper(b Bootstrapper) Option {
	return func(a *Agent) { a.bootstrap = b }
}

// WithObserver sends phase events to o instead of the context logger.
func WithObserver(o Observer) Option {
	return func(a *Agent) { a.observer = o }
}

// WithTimeouts sets the poll parameters of every wait.
func WithTimeouts(t *config.Timeouts) Option {
	return func(a *Agent) { a.timeouts = t }
}

// NewAgent creates an Agent for the given adapters.
func NewAgent(schemas *config.Schemas, adapters map[provider.Name]provider.Adapter, opts ...Option) *Agent {
	a := &Agent{
		schemas:  schemas,
		adapters: adapters,
		kube:     k8sclient.New,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.timeouts == nil {
		a.timeouts = config.LoadTimeouts()
	}
	if a.bootstrap == nil {
		a.bootstrap = bootstrap.New(a.timeouts)
	}
	return a
}

// Provision runs a cluster request to completion and returns its result.
// Re-running a request against an existing cluster converges without
// recreating anything.
func (a *Agent) Provision(ctx context.Context, name provider.Name, request config.Values) (*Result, error) {
	pctx := a.newContext(ctx, name, request)

	err := RunPhases(pctx, []Phase{
		&selectPhase{adapters: a.adapters},
		&resolvePhase{},
		NewValidationPhase(),
		&infrastructurePhase{},
		&accessPhase{},
		&bootstrapPhase{},
		&dnsPhase{},
	})
	if err != nil {
		metrics.RecordProvision(name.String(), string(clustererr.Classify(err)))
		return nil, err
	}

	metrics.RecordProvision(name.String(), "success")
	return newResult(pctx), nil
}

// Validate resolves and validates a request without creating anything. It
// returns the resolved values and any warnings.
func (a *Agent) Validate(ctx context.Context, name provider.Name, request config.Values) (config.Values, []string, error) {
	pctx := a.newContext(ctx, name, request)

	err := RunPhases(pctx, []Phase{
		&selectPhase{adapters: a.adapters},
		&resolvePhase{},
		NewValidationPhase(),
	})
	if err != nil {
		return nil, nil, err
	}
	return pctx.State.Values, pctx.State.Warnings, nil
}

// Destroy deletes the named cluster and waits until it is gone.
func (a *Agent) Destroy(ctx context.Context, name provider.Name, cluster string) error {
	adapter, err := lookupAdapter(a.adapters, name)
	if err != nil {
		return err
	}
	if cluster == "" {
		return clustererr.Configuration("name", cluster, "cluster name is required")
	}

	ctx = log.IntoContext(ctx, log.FromContext(ctx).WithValues("provider", name.String(), "cluster", cluster))
	observer := a.observerFor(ctx, name, cluster)
	if err := adapter.Destroy(ctx, cluster); err != nil {
		return clustererr.Infrastructure("destroy", cluster, err)
	}
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    "destroy",
		Resource: cluster,
		Message:  fmt.Sprintf("cluster %s deleted", cluster),
	})
	return nil
}

func (a *Agent) newContext(ctx context.Context, name provider.Name, request config.Values) *Context {
	logger := log.FromContext(ctx).WithValues("provider", name.String(), "cluster", request.String("name"))
	ctx = log.IntoContext(ctx, logger)

	return &Context{
		Context:   ctx,
		Provider:  name,
		Schemas:   a.schemas,
		Request:   request.Clone(),
		Kube:      a.kube,
		Bootstrap: a.bootstrap,
		Observer:  a.observerFor(ctx, name, request.String("name")),
		Timeouts:  a.timeouts,
		State:     &State{},
	}
}

// observerFor returns the configured observer tagged with the cluster, or a
// LogObserver on the context logger.
func (a *Agent) observerFor(ctx context.Context, name provider.Name, cluster string) Observer {
	if a.observer != nil {
		return a.observer.WithFields(map[string]string{"provider": name.String(), "cluster": cluster})
	}
	return NewLogObserver(log.FromContext(ctx))
}
