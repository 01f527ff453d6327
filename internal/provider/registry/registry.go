// Package registry builds provider adapters backed by real cloud sessions.
// It sits apart from package provider so the adapters can import the
// provider types without a cycle.
package registry

import (
	"context"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/provider/aks"
	"github.com/imamik/k8shub/internal/provider/eks"
	"github.com/imamik/k8shub/internal/provider/gke"
)

// New authenticates against the named provider and returns its adapter.
func New(ctx context.Context, name provider.Name, creds *config.Credentials, timeouts *config.Timeouts) (provider.Adapter, error) {
	if creds == nil {
		return nil, clustererr.Configuration("credentials", nil, "no credentials for provider %s", name)
	}

	switch name {
	case provider.GKE:
		if creds.GKE == nil {
			return nil, missing(name)
		}
		api, err := gke.NewSession(ctx, creds.GKE)
		if err != nil {
			return nil, session(name, err)
		}
		return gke.New(api, creds.GKE, timeouts), nil

	case provider.AKS:
		if creds.AKS == nil {
			return nil, missing(name)
		}
		api, err := aks.NewSession(creds.AKS)
		if err != nil {
			return nil, session(name, err)
		}
		return aks.New(api, creds.AKS, timeouts), nil

	case provider.EKS:
		if creds.EKS == nil {
			return nil, missing(name)
		}
		api, err := eks.NewSession(ctx, creds.EKS)
		if err != nil {
			return nil, session(name, err)
		}
		return eks.New(api, creds.EKS, timeouts), nil

	default:
		_, err := provider.ParseName(string(name))
		return nil, err
	}
}

func missing(name provider.Name) error {
	return clustererr.Configuration("credentials", nil, "no credentials for provider %s", name)
}

// session reports a failed authentication as a configuration problem
// unless it already is one.
func session(name provider.Name, err error) error {
	if clustererr.IsConfiguration(err) {
		return err
	}
	return &clustererr.ConfigurationError{Field: "credentials", Value: string(name), Err: err}
}
