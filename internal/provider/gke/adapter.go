package gke

import (
	"context"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/container/v1"
	"google.golang.org/api/dns/v1"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/reconcile"
	"github.com/imamik/k8shub/internal/util/naming"
)

// Adapter provisions GKE clusters in one project and region.
type Adapter struct {
	api      API
	project  string
	region   string
	timeouts *config.Timeouts
}

var _ provider.Adapter = (*Adapter)(nil)

// New returns an Adapter using api.
func New(api API, creds *config.GKECredentials, timeouts *config.Timeouts) *Adapter {
	return &Adapter{
		api:      api,
		project:  creds.Project,
		region:   creds.Region,
		timeouts: timeouts,
	}
}

// Name implements provider.Adapter.
func (a *Adapter) Name() provider.Name { return provider.GKE }

// CreateInfrastructure implements provider.Adapter.
func (a *Adapter) CreateInfrastructure(ctx context.Context, name string, c *config.Cluster) (*provider.Endpoint, error) {
	logger := log.FromContext(ctx).WithValues("provider", provider.GKE, "cluster", name)

	cluster, action, err := (&reconcile.EnsureOperation[*container.Cluster]{
		Name:   name,
		Kind:   "cluster",
		Exists: func(ctx context.Context) (bool, error) { return a.clusterExists(ctx, name) },
		Get:    func(ctx context.Context) (*container.Cluster, error) { return a.api.GetCluster(ctx, name) },
		Create: func(ctx context.Context) (*reconcile.Operation, error) {
			zones, err := a.api.Zones(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list zones: %w", err)
			}
			op, err := a.api.CreateCluster(ctx, clusterSpec(c, zones))
			if err != nil {
				return nil, err
			}
			return fromContainerOperation(op), nil
		},
		Refresh: a.refreshCluster,
		Poll:    a.timeouts.Operation("cluster " + name),
	}).Execute(ctx)
	if err != nil {
		return nil, clustererr.Infrastructure("provision cluster", name, err)
	}
	logger.Info("cluster ready", "action", action, "endpoint", cluster.Endpoint)

	if c.EnablePrivateNetwork {
		if err := a.ensureCloudNAT(ctx); err != nil {
			return nil, clustererr.Infrastructure("provision cloud nat", naming.Router, err)
		}
		if err := a.ensureMasterFirewall(ctx, c); err != nil {
			return nil, clustererr.Infrastructure("provision firewall", naming.MasterFirewall(c.Name), err)
		}
	}

	return endpointOf(cluster)
}

func endpointOf(cluster *container.Cluster) (*provider.Endpoint, error) {
	if cluster.Endpoint == "" {
		return nil, clustererr.Infrastructure("read endpoint", cluster.Name, fmt.Errorf("cluster has no endpoint"))
	}
	ep := &provider.Endpoint{
		Host:      "https://" + cluster.Endpoint,
		Locations: cluster.Locations,
	}
	if cluster.MasterAuth != nil && cluster.MasterAuth.ClusterCaCertificate != "" {
		ca, err := base64.StdEncoding.DecodeString(cluster.MasterAuth.ClusterCaCertificate)
		if err != nil {
			return nil, clustererr.Infrastructure("read endpoint", cluster.Name, fmt.Errorf("failed to decode cluster ca: %w", err))
		}
		ep.CAData = ca
	}
	return ep, nil
}

func (a *Adapter) clusterExists(ctx context.Context, name string) (bool, error) {
	_, err := a.api.GetCluster(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// ensureCloudNAT attaches the cloud NAT to the region router unless the
// router already carries one.
func (a *Adapter) ensureCloudNAT(ctx context.Context) error {
	_, _, err := (&reconcile.EnsureOperation[struct{}]{
		Name: naming.Router + "/" + naming.CloudNAT,
		Kind: "router nat",
		Exists: func(ctx context.Context) (bool, error) {
			router, err := a.api.GetRouter(ctx, naming.Router)
			if err != nil {
				return false, err
			}
			return len(router.Nats) > 0, nil
		},
		Create: func(ctx context.Context) (*reconcile.Operation, error) {
			router, err := a.api.GetRouter(ctx, naming.Router)
			if err != nil {
				return nil, err
			}
			router.Nats = []*compute.RouterNat{cloudNAT()}
			op, err := a.api.PatchRouter(ctx, naming.Router, router)
			if err != nil {
				return nil, err
			}
			return fromComputeOperation(op), nil
		},
		Refresh: a.refreshCompute,
		Poll:    a.timeouts.Operation("router " + naming.Router),
	}).Execute(ctx)
	return err
}

func (a *Adapter) ensureMasterFirewall(ctx context.Context, c *config.Cluster) error {
	name := naming.MasterFirewall(c.Name)
	_, _, err := (&reconcile.EnsureOperation[struct{}]{
		Name: name,
		Kind: "firewall",
		Exists: func(ctx context.Context) (bool, error) {
			_, err := a.api.GetFirewall(ctx, name)
			if isNotFound(err) {
				return false, nil
			}
			return err == nil, err
		},
		Create: func(ctx context.Context) (*reconcile.Operation, error) {
			op, err := a.api.InsertFirewall(ctx, masterFirewall(c))
			if err != nil {
				return nil, err
			}
			return fromComputeOperation(op), nil
		},
		Refresh: a.refreshCompute,
		Poll:    a.timeouts.Operation("firewall " + name),
	}).Execute(ctx)
	return err
}

// Credential implements provider.Adapter with a short lived OAuth2 token.
func (a *Adapter) Credential(ctx context.Context, name string, _ *provider.Endpoint) (*provider.Credential, error) {
	token, err := a.api.AccessToken(ctx)
	if err != nil {
		return nil, clustererr.Infrastructure("obtain credential", name, err)
	}
	return &provider.Credential{BearerToken: token}, nil
}

// InitializeNetworking publishes the API server address as
// <name>-kubeapi.<domain>.
func (a *Adapter) InitializeNetworking(ctx context.Context, _ k8sclient.Client, name string, c *config.Cluster, ep *provider.Endpoint) error {
	record := provider.Record{
		Hostname: naming.KubeAPIHost(name),
		Zone:     c.Domain,
		Address:  strings.TrimPrefix(ep.Host, "https://"),
	}
	if err := a.UpsertRecord(ctx, record); err != nil {
		return clustererr.Infrastructure("publish api server record", record.FQDN(), err)
	}
	return nil
}

// UpsertRecord implements provider.Adapter. Existing record sets of the same
// name are replaced in the same change.
func (a *Adapter) UpsertRecord(ctx context.Context, record provider.Record) error {
	zone, err := a.managedZone(ctx, record.Zone)
	if err != nil {
		return err
	}

	desired := &dns.ResourceRecordSet{
		Kind:    "dns#resourceRecordSet",
		Name:    record.FQDN(),
		Type:    string(record.Type()),
		Ttl:     dnsTTL,
		Rrdatas: []string{rrdata(record)},
	}

	existing, err := a.api.ListRecordSets(ctx, zone.Name, desired.Name)
	if err != nil {
		return fmt.Errorf("failed to list record sets in %s: %w", zone.Name, err)
	}

	change := &dns.Change{Additions: []*dns.ResourceRecordSet{desired}}
	for _, rr := range existing {
		if rr.Name != desired.Name {
			continue
		}
		if rr.Type == desired.Type && rr.Ttl == desired.Ttl && slices.Equal(rr.Rrdatas, desired.Rrdatas) {
			log.FromContext(ctx).V(1).Info("dns record up to date", "record", desired.Name)
			return nil
		}
		change.Deletions = append(change.Deletions, rr)
	}

	if _, err := a.api.CreateChange(ctx, zone.Name, change); err != nil {
		return fmt.Errorf("failed to update record %s: %w", desired.Name, err)
	}
	log.FromContext(ctx).Info("dns record updated", "record", desired.Name, "type", desired.Type, "address", record.Address)
	return nil
}

func rrdata(record provider.Record) string {
	if record.Type() == provider.RecordCNAME {
		return strings.TrimSuffix(record.Address, ".") + "."
	}
	return record.Address
}

// managedZone finds the managed zone serving domain.
func (a *Adapter) managedZone(ctx context.Context, domain string) (*dns.ManagedZone, error) {
	zones, err := a.api.ListManagedZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed zones: %w", err)
	}
	domain = strings.TrimSuffix(domain, ".")
	for _, z := range zones {
		if strings.TrimSuffix(z.DnsName, ".") == domain {
			return z, nil
		}
	}
	return nil, fmt.Errorf("managed zone for %q not found in project %s", domain, a.project)
}

// Destroy implements provider.Adapter.
func (a *Adapter) Destroy(ctx context.Context, name string) error {
	err := (&reconcile.DeleteOperation{
		Name:   name,
		Kind:   "cluster",
		Exists: func(ctx context.Context) (bool, error) { return a.clusterExists(ctx, name) },
		Delete: func(ctx context.Context) (*reconcile.Operation, error) {
			op, err := a.api.DeleteCluster(ctx, name)
			if err != nil {
				return nil, err
			}
			return fromContainerOperation(op), nil
		},
		Refresh: a.refreshCluster,
		Poll:    a.timeouts.Operation("deletion of cluster " + name),
	}).Execute(ctx)
	return clustererr.Infrastructure("destroy cluster", name, err)
}
