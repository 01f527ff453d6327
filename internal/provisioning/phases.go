package provisioning

import (
	"context"
	"fmt"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/metrics"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/util/retry"
)

// selectPhase picks the adapter for the requested provider.
type selectPhase struct {
	adapters map[provider.Name]provider.Adapter
}

func (p *selectPhase) Name() string { return "select" }

func (p *selectPhase) Provision(ctx *Context) error {
	adapter, err := lookupAdapter(p.adapters, ctx.Provider)
	if err != nil {
		return err
	}
	ctx.Adapter = adapter
	return nil
}

func lookupAdapter(adapters map[provider.Name]provider.Adapter, name provider.Name) (provider.Adapter, error) {
	if _, err := provider.ParseName(name.String()); err != nil {
		return nil, err
	}
	adapter, ok := adapters[name]
	if !ok || adapter == nil {
		return nil, clustererr.Configuration("provider", name.String(), "provider %q is not configured", name)
	}
	return adapter, nil
}

// resolvePhase overlays the request on the provider defaults.
type resolvePhase struct{}

func (p *resolvePhase) Name() string { return "resolve" }

func (p *resolvePhase) Provision(ctx *Context) error {
	defaults, err := ctx.Schemas.Defaults(ctx.Provider.String())
	if err != nil {
		return err
	}
	ctx.State.Values = config.Merge(defaults, ctx.Request)
	return nil
}

// infrastructurePhase ensures the managed cluster exists.
type infrastructurePhase struct{}

func (p *infrastructurePhase) Name() string { return "infrastructure" }

func (p *infrastructurePhase) Provision(ctx *Context) error {
	name := ctx.Name()
	ep, err := ctx.Adapter.CreateInfrastructure(ctx, name, ctx.State.Cluster)
	if err != nil {
		return clustererr.Infrastructure("create", name, err)
	}
	for k, v := range ctx.State.Cluster.Generated() {
		ctx.State.Values[k] = v
	}
	ctx.State.Endpoint = ep
	LogResource(ctx.Observer, p.Name(), "cluster", ep.Host)
	return nil
}

// accessPhase connects to the API server and prepares in-cluster networking.
type accessPhase struct{}

func (p *accessPhase) Name() string { return "access" }

func (p *accessPhase) Provision(ctx *Context) error {
	name := ctx.Name()
	cred, err := ctx.Adapter.Credential(ctx, name, ctx.State.Endpoint)
	if err != nil {
		return clustererr.Infrastructure("credential", name, err)
	}
	ctx.State.Credential = cred

	kube, err := ctx.Kube(provider.KubeConfig(ctx.State.Endpoint, cred))
	if err != nil {
		return clustererr.Infrastructure("connect", ctx.State.Endpoint.Host, err)
	}
	ctx.State.Kube = kube

	if err := ctx.Adapter.InitializeNetworking(ctx, kube, name, ctx.State.Cluster, ctx.State.Endpoint); err != nil {
		if clustererr.Classify(err) != clustererr.KindUnknown {
			return err
		}
		return clustererr.Infrastructure("initialize networking", name, err)
	}
	return nil
}

// bootstrapPhase runs the bootstrap driver against the cluster.
type bootstrapPhase struct{}

func (p *bootstrapPhase) Name() string { return "bootstrap" }

func (p *bootstrapPhase) Provision(ctx *Context) error {
	outcome, err := ctx.Bootstrap.Run(ctx, ctx.State.Kube, ctx.State.Values)
	if err != nil {
		return clustererr.Initializer("bootstrap", ctx.Name(), err)
	}
	ctx.State.Outcome = outcome
	return nil
}

// dnsPhase points the dashboard hostname at the published address. A
// failure is reported as a warning and does not fail the run.
type dnsPhase struct{}

func (p *dnsPhase) Name() string { return "dns" }

func (p *dnsPhase) Provision(ctx *Context) error {
	c := ctx.State.Cluster
	if c.GrafanaHostname == "" || ctx.State.Outcome == nil || ctx.State.Outcome.DashboardAddress == "" {
		return nil
	}

	record := provider.Record{
		Hostname: c.GrafanaHostname,
		Zone:     c.Domain,
		Address:  ctx.State.Outcome.DashboardAddress,
	}
	err := retry.Backoff(ctx, func(rctx context.Context) error {
		return ctx.Adapter.UpsertRecord(rctx, record)
	}, append(ctx.Timeouts.DNS(), retry.WithResource(record.FQDN()))...)
	if err != nil {
		metrics.RecordDNSFailure()
		ctx.Warn(p.Name(), fmt.Sprintf("dns record %s -> %s not reconciled: %v", record.FQDN(), record.Address, err))
		return nil
	}

	LogResource(ctx.Observer, p.Name(), string(record.Type()), record.FQDN())
	return nil
}
