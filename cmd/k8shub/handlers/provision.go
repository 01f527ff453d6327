package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/provider/registry"
	"github.com/imamik/k8shub/internal/provisioning"
)

// Factory function variables - can be replaced in tests.
var (
	loadSchemas     = config.LoadSchemas
	loadTimeouts    = config.LoadTimeouts
	loadCredentials = config.LoadCredentials
	newAdapter      = registry.New

	// agentOptions are appended to every agent built by newAgent.
	agentOptions []provisioning.Option
)

// newAgent authenticates against the named provider and returns an agent
// serving it.
func newAgent(ctx context.Context, name provider.Name) (*provisioning.Agent, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	creds, err := loadCredentials(name.String())
	if err != nil {
		return nil, err
	}
	timeouts := loadTimeouts()
	adapter, err := newAdapter(ctx, name, creds, timeouts)
	if err != nil {
		return nil, err
	}

	opts := append([]provisioning.Option{provisioning.WithTimeouts(timeouts)}, agentOptions...)
	return provisioning.NewAgent(schemas, map[provider.Name]provider.Adapter{name: adapter}, opts...), nil
}

// Provision handles the provision command.
func Provision(ctx context.Context, w io.Writer, providerArg string, src RequestSource, format string) error {
	if err := checkFormat(format, true); err != nil {
		return err
	}
	name, err := provider.ParseName(providerArg)
	if err != nil {
		return err
	}
	request, err := src.Load()
	if err != nil {
		return err
	}

	agent, err := newAgent(ctx, name)
	if err != nil {
		return err
	}

	log.FromContext(ctx).Info("provisioning cluster", "provider", name.String(), "cluster", request.String("name"))
	res, err := agent.Provision(ctx, name, request)
	if err != nil {
		return failure("provision", err)
	}
	return render(w, res, format)
}

// ProvisionBatch provisions one cluster per request file, up to concurrency
// at once. Every result is printed; the returned error joins the failures.
func ProvisionBatch(ctx context.Context, w io.Writer, providerArg string, src RequestSource, format string, concurrency int) error {
	if err := checkFormat(format, true); err != nil {
		return err
	}
	name, err := provider.ParseName(providerArg)
	if err != nil {
		return err
	}
	requests, err := src.LoadEach()
	if err != nil {
		return err
	}

	agent, err := newAgent(ctx, name)
	if err != nil {
		return err
	}

	batch := make([]provisioning.Request, 0, len(requests))
	for _, values := range requests {
		batch = append(batch, provisioning.Request{Provider: name, Values: values})
	}
	results, err := agent.ProvisionAll(ctx, batch, concurrency)
	if err != nil {
		return err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Request.Name(), failure("provision", r.Err)))
			continue
		}
		if err := render(w, r.Result, format); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

// failure prefixes err with its taxonomy kind.
func failure(op string, err error) error {
	return fmt.Errorf("%s failed (%s): %w", op, clustererr.Classify(err), err)
}
