package provisioning

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/imamik/k8shub/internal/bootstrap"
	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/k8sclient/k8sfake"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/reconcile"
)

// fakeAdapter is a scripted provider. Clusters start missing; a create
// returns a running operation that the first refresh reports DONE.
type fakeAdapter struct {
	mu sync.Mutex

	name     provider.Name
	timeouts *config.Timeouts
	clusters map[string]bool

	validateErr  error
	createErr    error
	failMessage  string
	credErr      error
	networkErr   error
	upsertErrs   int
	generatedKey string
	destroyErr   error

	validateCalls int
	createCalls   int
	upsertCalls   int
	records       []provider.Record
	destroyed     []string
}

func newFakeAdapter(name provider.Name) *fakeAdapter {
	return &fakeAdapter{
		name:     name,
		timeouts: config.TestTimeouts(),
		clusters: map[string]bool{},
	}
}

func (f *fakeAdapter) Name() provider.Name { return f.name }

func (f *fakeAdapter) Validate(context.Context, *config.Cluster) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls++
	return f.validateErr
}

func (f *fakeAdapter) CreateInfrastructure(ctx context.Context, name string, c *config.Cluster) (*provider.Endpoint, error) {
	if f.generatedKey != "" {
		c.SetGenerated("ssh_key", f.generatedKey)
	}

	_, _, err := (&reconcile.EnsureOperation[struct{}]{
		Name: name,
		Kind: "cluster",
		Exists: func(context.Context) (bool, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.clusters[name], nil
		},
		Create: func(context.Context) (*reconcile.Operation, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.createCalls++
			if f.createErr != nil {
				return nil, f.createErr
			}
			return &reconcile.Operation{ID: "op-" + name, Target: name, Status: reconcile.StatusRunning}, nil
		},
		Refresh: func(_ context.Context, op *reconcile.Operation) (*reconcile.Operation, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			done := &reconcile.Operation{ID: op.ID, Target: op.Target, Status: reconcile.StatusDone, Message: f.failMessage}
			if f.failMessage == "" {
				f.clusters[name] = true
			}
			return done, nil
		},
		Poll: f.timeouts.Operation("cluster " + name),
	}).Execute(ctx)
	if err != nil {
		return nil, clustererr.Infrastructure("create", "cluster "+name, err)
	}

	return &provider.Endpoint{
		Host:      "https://" + name + ".example.test",
		CAData:    []byte("ca-data"),
		Locations: []string{"zone-a", "zone-b"},
	}, nil
}

func (f *fakeAdapter) Credential(context.Context, string, *provider.Endpoint) (*provider.Credential, error) {
	if f.credErr != nil {
		return nil, f.credErr
	}
	return &provider.Credential{BearerToken: "bearer"}, nil
}

func (f *fakeAdapter) InitializeNetworking(context.Context, k8sclient.Client, string, *config.Cluster, *provider.Endpoint) error {
	return f.networkErr
}

func (f *fakeAdapter) UpsertRecord(_ context.Context, record provider.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.upsertCalls <= f.upsertErrs {
		return errors.New("zone temporarily unavailable")
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeAdapter) Destroy(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyErr != nil {
		return f.destroyErr
	}
	delete(f.clusters, name)
	f.destroyed = append(f.destroyed, name)
	return nil
}

// fakeKubes hands out one fake cluster per API server host.
type fakeKubes struct {
	mu       sync.Mutex
	clusters map[string]*k8sfake.Client
	setup    func(*k8sfake.Client)
}

func newFakeKubes(setup func(*k8sfake.Client)) *fakeKubes {
	return &fakeKubes{clusters: map[string]*k8sfake.Client{}, setup: setup}
}

func (k *fakeKubes) factory(cfg k8sclient.Config) (k8sclient.Client, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if kube, ok := k.clusters[cfg.Host]; ok {
		return kube, nil
	}
	kube := readyKube(corev1.ServiceTypeLoadBalancer)
	if k.setup != nil {
		k.setup(kube)
	}
	k.clusters[cfg.Host] = kube
	return kube, nil
}

func (k *fakeKubes) get(host string) *k8sfake.Client {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.clusters[host]
}

// readyKube is a cluster whose installer job already finished and whose
// dashboard is published on lb.example.com.
func readyKube(serviceType corev1.ServiceType) *k8sfake.Client {
	kube := k8sfake.New()
	kube.Nodes = []corev1.Node{{}}
	kube.JobHook = func(n int) (*batchv1.Job, error) {
		if n < 2 {
			return &batchv1.Job{}, nil
		}
		return &batchv1.Job{Status: batchv1.JobStatus{Succeeded: 1}}, nil
	}
	kube.Secrets[k8sfake.Key(bootstrap.LoggingNamespace, bootstrap.APIKeySecret)] = &corev1.Secret{
		Data: map[string][]byte{bootstrap.APIKeyField: []byte("api-key")},
	}
	kube.Secrets[k8sfake.Key(bootstrap.SystemNamespace, bootstrap.AdminToken)] = &corev1.Secret{
		Data: map[string][]byte{corev1.ServiceAccountTokenKey: []byte("sa-token")},
	}
	kube.Services[k8sfake.Key(bootstrap.LoggingNamespace, bootstrap.DashboardName)] = &corev1.Service{
		Spec: corev1.ServiceSpec{Type: serviceType},
		Status: corev1.ServiceStatus{LoadBalancer: corev1.LoadBalancerStatus{
			Ingress: []corev1.LoadBalancerIngress{{Hostname: "lb.example.com"}},
		}},
	}
	return kube
}

func testSchemas(t *testing.T) *config.Schemas {
	t.Helper()
	schemas, err := config.LoadSchemas()
	require.NoError(t, err)
	return schemas
}

func testRequest(name string) config.Values {
	return config.Values{
		"name":                 name,
		"domain":               "example.com",
		"grafana_service_type": "LoadBalancer",
	}
}

func newTestAgent(t *testing.T, kubes *fakeKubes, adapters ...*fakeAdapter) *Agent {
	t.Helper()
	byName := map[provider.Name]provider.Adapter{}
	for _, a := range adapters {
		byName[a.name] = a
	}
	timeouts := config.TestTimeouts()
	return NewAgent(testSchemas(t), byName,
		WithTimeouts(timeouts),
		WithKubeFactory(kubes.factory),
		WithBootstrapper(bootstrap.New(timeouts)),
	)
}
