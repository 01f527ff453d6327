package provisioning

import (
	"context"

	"github.com/alitto/pond/v2"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/provider"
)

// Request is one entry of a batch.
type Request struct {
	Provider provider.Name
	Values   config.Values
}

// Name returns the requested cluster name.
func (r Request) Name() string {
	return r.Values.String("name")
}

// BatchResult pairs a request with its outcome. Exactly one of Result and
// Err is set.
type BatchResult struct {
	Request Request
	Result  *Result
	Err     error
}

// ProvisionAll provisions independent requests concurrently with at most
// concurrency runs in flight. Results are returned in request order. A batch
// naming the same cluster twice is rejected before anything runs.
func (a *Agent) ProvisionAll(ctx context.Context, requests []Request, concurrency int) ([]BatchResult, error) {
	seen := make(map[string]bool, len(requests))
	for _, r := range requests {
		if seen[r.Name()] {
			return nil, clustererr.Configuration("name", r.Name(), "cluster %q is requested more than once", r.Name())
		}
		seen[r.Name()] = true
	}

	if concurrency <= 0 || concurrency > len(requests) {
		concurrency = max(len(requests), 1)
	}
	log.FromContext(ctx).Info("provisioning batch", "clusters", len(requests), "concurrency", concurrency)

	results := make([]BatchResult, len(requests))
	pool := pond.NewPool(concurrency, pond.WithContext(ctx))
	for i, r := range requests {
		pool.Submit(func() {
			res, err := a.Provision(ctx, r.Provider, r.Values)
			results[i] = BatchResult{Request: r, Result: res, Err: err}
		})
	}
	pool.StopAndWait()

	for i := range results {
		if results[i].Result == nil && results[i].Err == nil {
			results[i] = BatchResult{Request: requests[i], Err: context.Cause(ctx)}
		}
	}
	return results, nil
}
