package handlers

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/provider"
)

// Destroy handles the destroy command. The cluster name comes from the
// argument or, when empty, from the request files.
func Destroy(ctx context.Context, providerArg, cluster string, src RequestSource) error {
	name, err := provider.ParseName(providerArg)
	if err != nil {
		return err
	}
	if cluster == "" && len(src.ConfigPaths) > 0 {
		request, err := src.Load()
		if err != nil {
			return err
		}
		cluster = request.String("name")
	}
	if cluster == "" {
		return clustererr.Configuration("name", cluster, "a cluster name or --config is required")
	}

	agent, err := newAgent(ctx, name)
	if err != nil {
		return err
	}

	logger := log.FromContext(ctx)
	logger.Info("destroying cluster", "provider", name.String(), "cluster", cluster)
	if err := agent.Destroy(ctx, name, cluster); err != nil {
		return failure("destroy", err)
	}
	logger.Info("cluster destroyed", "cluster", cluster)
	return nil
}
