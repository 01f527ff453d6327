package provisioning

import (
	"encoding/base64"

	"github.com/imamik/k8shub/internal/bootstrap"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/util/naming"
)

// Result is the document returned for a provisioned cluster.
type Result struct {
	Provider string        `json:"provider"`
	Cluster  ClusterInfo   `json:"cluster"`
	Config   config.Values `json:"config"`
	Services Services      `json:"services"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ClusterInfo describes how to reach the cluster as the sysadmin account.
type ClusterInfo struct {
	Name                    string   `json:"name"`
	CA                      string   `json:"ca"`
	Endpoint                string   `json:"endpoint"`
	Token                   string   `json:"token"`
	Locations               []string `json:"locations"`
	ServiceAccountName      string   `json:"service_account_name"`
	ServiceAccountNamespace string   `json:"service_account_namespace"`
	KubeAPI                 string   `json:"kubeapi,omitempty"`
}

// Services describes what the bootstrap installed.
type Services struct {
	Dashboard  Dashboard `json:"dashboard"`
	Grafana    Grafana   `json:"grafana"`
	Loki       Enabled   `json:"loki"`
	Prometheus Enabled   `json:"prometheus"`
}

type Dashboard struct {
	Address string `json:"address"`
	URL     string `json:"url"`
}

type Grafana struct {
	Hostname string `json:"hostname"`
	URL      string `json:"url"`
	Password string `json:"password"`
	APIKey   string `json:"api_key"`
}

type Enabled struct {
	Enabled bool `json:"enabled"`
}

// newResult assembles the result from a completed run.
func newResult(ctx *Context) *Result {
	s := ctx.State
	c := s.Cluster
	outcome := s.Outcome
	if outcome == nil {
		outcome = &bootstrap.Outcome{}
	}

	hostname := c.DashboardFQDN()
	res := &Result{
		Provider: ctx.Provider.String(),
		Cluster: ClusterInfo{
			Name:                    c.Name,
			CA:                      base64.StdEncoding.EncodeToString(s.Endpoint.CAData),
			Endpoint:                s.Endpoint.Host,
			Token:                   outcome.Token,
			Locations:               s.Endpoint.Locations,
			ServiceAccountName:      bootstrap.AdminAccount,
			ServiceAccountNamespace: bootstrap.SystemNamespace,
		},
		Config: s.Values.Clone(),
		Services: Services{
			Dashboard: Dashboard{
				Address: outcome.DashboardAddress,
				URL:     "http://" + outcome.DashboardAddress,
			},
			Grafana: Grafana{
				Hostname: hostname,
				URL:      "http://" + hostname,
				Password: outcome.GrafanaPassword,
				APIKey:   outcome.GrafanaAPIKey,
			},
			Loki:       Enabled{Enabled: true},
			Prometheus: Enabled{Enabled: true},
		},
		Warnings: s.Warnings,
	}
	if ctx.Provider == provider.GKE {
		res.Cluster.KubeAPI = "https://" + naming.FQDN(naming.KubeAPIHost(c.Name), c.Domain)
	}
	return res
}
