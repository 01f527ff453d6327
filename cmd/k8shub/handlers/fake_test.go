package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/k8shub/internal/bootstrap"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/k8sclient/k8sfake"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/provisioning"
)

// stubAdapter creates clusters synchronously and records destroys.
type stubAdapter struct {
	name        provider.Name
	validateErr error
	createErr   error
	destroyed   []string
}

func (s *stubAdapter) Name() provider.Name { return s.name }

func (s *stubAdapter) Validate(context.Context, *config.Cluster) error { return s.validateErr }

func (s *stubAdapter) CreateInfrastructure(_ context.Context, name string, _ *config.Cluster) (*provider.Endpoint, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &provider.Endpoint{Host: "https://" + name + ".example.test", CAData: []byte("ca"), Locations: []string{"europe-west2-a"}}, nil
}

func (s *stubAdapter) Credential(context.Context, string, *provider.Endpoint) (*provider.Credential, error) {
	return &provider.Credential{BearerToken: "token"}, nil
}

func (s *stubAdapter) InitializeNetworking(context.Context, k8sclient.Client, string, *config.Cluster, *provider.Endpoint) error {
	return nil
}

func (s *stubAdapter) UpsertRecord(context.Context, provider.Record) error { return nil }

func (s *stubAdapter) Destroy(_ context.Context, name string) error {
	s.destroyed = append(s.destroyed, name)
	return nil
}

type stubBootstrap struct{}

func (stubBootstrap) Run(_ context.Context, _ k8sclient.Client, values config.Values) (*bootstrap.Outcome, error) {
	return &bootstrap.Outcome{
		DashboardAddress: "lb.example.com",
		GrafanaPassword:  values.String("grafana_password"),
		GrafanaAPIKey:    "api-key",
		Token:            "sa-token",
	}, nil
}

// useStubProvider swaps the handler factories for a stub adapter and
// restores them when the test ends.
func useStubProvider(t *testing.T, adapter *stubAdapter) {
	t.Helper()
	origCreds, origAdapter, origTimeouts, origOpts := loadCredentials, newAdapter, loadTimeouts, agentOptions
	t.Cleanup(func() {
		loadCredentials, newAdapter, loadTimeouts, agentOptions = origCreds, origAdapter, origTimeouts, origOpts
	})

	loadCredentials = func(string) (*config.Credentials, error) { return &config.Credentials{}, nil }
	newAdapter = func(_ context.Context, name provider.Name, _ *config.Credentials, _ *config.Timeouts) (provider.Adapter, error) {
		if adapter == nil {
			return nil, errors.New("no session")
		}
		adapter.name = name
		return adapter, nil
	}
	loadTimeouts = config.TestTimeouts
	agentOptions = []provisioning.Option{
		provisioning.WithKubeFactory(func(k8sclient.Config) (k8sclient.Client, error) { return k8sfake.New(), nil }),
		provisioning.WithBootstrapper(stubBootstrap{}),
	}
}

func writeRequest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
