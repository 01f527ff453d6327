package provider

import (
	"context"
	"net/netip"
	"strings"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
)

// Name identifies a supported managed Kubernetes service.
type Name string

const (
	GKE Name = "gke"
	AKS Name = "aks"
	EKS Name = "eks"
)

// Names lists every supported provider.
func Names() []Name {
	return []Name{GKE, AKS, EKS}
}

// ParseName validates s against the closed set of providers.
func ParseName(s string) (Name, error) {
	switch n := Name(strings.ToLower(strings.TrimSpace(s))); n {
	case GKE, AKS, EKS:
		return n, nil
	default:
		return "", clustererr.Configuration("provider", s, "unsupported provider %q, expected one of gke, aks, eks", s)
	}
}

func (n Name) String() string { return string(n) }

// Endpoint describes how to reach a provisioned cluster's API server.
type Endpoint struct {
	Host      string   // https URL of the API server
	CAData    []byte   // PEM encoded cluster CA
	Locations []string // zones or regions the cluster runs in
}

// Credential authenticates against an Endpoint. Either BearerToken or the
// client certificate pair is set.
type Credential struct {
	BearerToken    string
	ClientCertData []byte
	ClientKeyData  []byte
}

// KubeConfig combines an endpoint and a credential into a client config.
func KubeConfig(ep *Endpoint, cred *Credential) k8sclient.Config {
	return k8sclient.Config{
		Host:           ep.Host,
		CAData:         ep.CAData,
		BearerToken:    cred.BearerToken,
		ClientCertData: cred.ClientCertData,
		ClientKeyData:  cred.ClientKeyData,
	}
}

// RecordType is the DNS record type written for a Record.
type RecordType string

const (
	RecordA     RecordType = "A"
	RecordCNAME RecordType = "CNAME"
)

// Record maps Hostname within Zone onto Address.
type Record struct {
	Hostname string // label relative to Zone, e.g. "grafana"
	Zone     string // DNS domain, e.g. "example.com"
	Address  string // IP address or hostname
}

// Type is A when Address is an IP address and CNAME otherwise.
func (r Record) Type() RecordType {
	if _, err := netip.ParseAddr(r.Address); err == nil {
		return RecordA
	}
	return RecordCNAME
}

// FQDN returns the fully qualified record name with a trailing dot.
func (r Record) FQDN() string {
	return r.Hostname + "." + strings.TrimSuffix(r.Zone, ".") + "."
}

// Adapter is the capability set every provider implements.
type Adapter interface {
	Name() Name

	// Validate checks the provider specific parts of a resolved config and
	// the account it runs in. Failures are ConfigurationErrors; nothing is
	// created.
	Validate(ctx context.Context, cluster *config.Cluster) error

	// CreateInfrastructure ensures the managed cluster and its supporting
	// network resources exist and are ready. Failures are
	// InfrastructureErrors.
	CreateInfrastructure(ctx context.Context, name string, cluster *config.Cluster) (*Endpoint, error)

	// Credential returns a fresh credential for the cluster API server.
	Credential(ctx context.Context, name string, ep *Endpoint) (*Credential, error)

	// InitializeNetworking applies provider specific in-cluster networking
	// prerequisites once the API server answers.
	InitializeNetworking(ctx context.Context, kube k8sclient.Client, name string, cluster *config.Cluster, ep *Endpoint) error

	// UpsertRecord creates or replaces a DNS record.
	UpsertRecord(ctx context.Context, record Record) error

	// Destroy removes the cluster if it exists.
	Destroy(ctx context.Context, name string) error
}
