package aks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/dns/armdns"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/k8sclient"
	"github.com/imamik/k8shub/internal/provider"
	"github.com/imamik/k8shub/internal/reconcile"
	"github.com/imamik/k8shub/internal/util/keygen"
	"github.com/imamik/k8shub/internal/util/labels"
	"github.com/imamik/k8shub/internal/util/naming"
)

const provisioningSucceeded = "Succeeded"

// Adapter provisions AKS clusters in one subscription and location.
type Adapter struct {
	api       API
	creds     *config.AKSCredentials
	timeouts  *config.Timeouts
	generator func() (*keygen.KeyPair, error)
}

var _ provider.Adapter = (*Adapter)(nil)

// New returns an Adapter using api.
func New(api API, creds *config.AKSCredentials, timeouts *config.Timeouts) *Adapter {
	return &Adapter{
		api:       api,
		creds:     creds,
		timeouts:  timeouts,
		generator: keygen.NodeAccessKey,
	}
}

// Name implements provider.Adapter.
func (a *Adapter) Name() provider.Name { return provider.AKS }

// CreateInfrastructure implements provider.Adapter.
func (a *Adapter) CreateInfrastructure(ctx context.Context, name string, c *config.Cluster) (*provider.Endpoint, error) {
	logger := log.FromContext(ctx).WithValues("provider", provider.AKS, "cluster", name)
	group := naming.ResourceGroup(name)

	if err := a.ensureResourceGroup(ctx, name, group); err != nil {
		return nil, clustererr.Infrastructure("provision resource group", group, err)
	}

	sshKey, err := a.nodeKey(ctx, group, name, c)
	if err != nil {
		return nil, clustererr.Infrastructure("resolve ssh key", name, err)
	}
	spec, err := managedClusterSpec(c, a.creds.Region, sshKey, servicePrincipal{
		ClientID: a.creds.ClientID,
		Secret:   a.creds.ClientSecret,
	})
	if err != nil {
		return nil, clustererr.Infrastructure("provision cluster", name, err)
	}

	cluster, action, err := (&reconcile.EnsureOperation[*armcontainerservice.ManagedCluster]{
		Name:   name,
		Kind:   "managed cluster",
		Exists: func(ctx context.Context) (bool, error) { return a.clusterExists(ctx, group, name) },
		Get: func(ctx context.Context) (*armcontainerservice.ManagedCluster, error) {
			return a.api.GetManagedCluster(ctx, group, name)
		},
		Create: func(ctx context.Context) (*reconcile.Operation, error) {
			if err := a.api.BeginCreateManagedCluster(ctx, group, name, spec); err != nil {
				return nil, err
			}
			return &reconcile.Operation{ID: name, Target: group, Status: reconcile.StatusRunning}, nil
		},
		Refresh: a.refreshProvisioning(group, name),
		Poll:    a.timeouts.Deployment("managed cluster " + name),
	}).Execute(ctx)
	if err != nil {
		return nil, clustererr.Infrastructure("provision cluster", name, err)
	}

	// A cluster found mid-deployment from an earlier run is waited on too.
	if action == reconcile.ActionExists && provisioningState(cluster) != provisioningSucceeded {
		logger.Info("deployment already underway, waiting for completion", "state", provisioningState(cluster))
		pending := &reconcile.Operation{ID: name, Target: group, Status: reconcile.StatusRunning}
		if _, err := reconcile.Wait(ctx, pending, a.refreshProvisioning(group, name), a.timeouts.Deployment("managed cluster "+name)); err != nil {
			return nil, clustererr.Infrastructure("provision cluster", name, err)
		}
	}
	logger.Info("managed cluster ready", "action", action, "resource_group", group)

	ep, _, err := a.adminAccess(ctx, group, name)
	if err != nil {
		return nil, clustererr.Infrastructure("read admin credentials", name, err)
	}
	ep.Locations = []string{a.creds.Region}
	return ep, nil
}

// nodeKey returns the configured ssh key, the key an existing cluster was
// deployed with, or a newly generated one. Keys not taken from c are
// recorded as generated values.
func (a *Adapter) nodeKey(ctx context.Context, group, name string, c *config.Cluster) (string, error) {
	if c.SSHKey != "" {
		return c.SSHKey, nil
	}

	existing, err := a.api.GetManagedCluster(ctx, group, name)
	switch {
	case err == nil:
		if key := deployedKey(existing); key != "" {
			c.SSHKey = key
			c.SetGenerated("ssh_key", key)
			return key, nil
		}
	case !isNotFound(err):
		return "", err
	}

	pair, err := a.generator()
	if err != nil {
		return "", err
	}
	c.SSHKey = pair.AuthorizedKey()
	c.SetGenerated("ssh_key", c.SSHKey)
	return c.SSHKey, nil
}

// deployedKey returns the first node ssh key of cluster, if any.
func deployedKey(cluster *armcontainerservice.ManagedCluster) string {
	if cluster == nil || cluster.Properties == nil || cluster.Properties.LinuxProfile == nil ||
		cluster.Properties.LinuxProfile.SSH == nil {
		return ""
	}
	for _, k := range cluster.Properties.LinuxProfile.SSH.PublicKeys {
		if k != nil && k.KeyData != nil && *k.KeyData != "" {
			return *k.KeyData
		}
	}
	return ""
}

// ensureResourceGroup creates group and waits until reads return it.
func (a *Adapter) ensureResourceGroup(ctx context.Context, cluster, group string) error {
	_, _, err := (&reconcile.EnsureOperation[struct{}]{
		Name:   group,
		Kind:   "resource group",
		Exists: func(ctx context.Context) (bool, error) { return a.groupExists(ctx, group) },
		Create: func(ctx context.Context) (*reconcile.Operation, error) {
			err := a.api.CreateResourceGroup(ctx, group, armresources.ResourceGroup{
				Location: to.Ptr(a.creds.Region),
				Tags:     labels.NewLabelBuilder(cluster).WithProvider("aks").BuildPointers(),
			})
			if err != nil {
				return nil, err
			}
			return &reconcile.Operation{ID: group, Target: group, Status: reconcile.StatusRunning}, nil
		},
		Refresh: func(ctx context.Context, op *reconcile.Operation) (*reconcile.Operation, error) {
			visible, err := a.groupExists(ctx, group)
			if err != nil {
				return nil, err
			}
			next := *op
			if visible {
				next.Status = reconcile.StatusDone
			}
			return &next, nil
		},
		Poll: a.timeouts.ResourceGroup("resource group " + group),
	}).Execute(ctx)
	return err
}

func (a *Adapter) groupExists(ctx context.Context, group string) (bool, error) {
	_, err := a.api.GetResourceGroup(ctx, group)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

func (a *Adapter) clusterExists(ctx context.Context, group, name string) (bool, error) {
	_, err := a.api.GetManagedCluster(ctx, group, name)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// refreshProvisioning maps the managed cluster provisioning state onto an
// operation status.
func (a *Adapter) refreshProvisioning(group, name string) reconcile.RefreshFunc {
	return func(ctx context.Context, op *reconcile.Operation) (*reconcile.Operation, error) {
		cluster, err := a.api.GetManagedCluster(ctx, group, name)
		if err != nil {
			return nil, err
		}
		next := *op
		switch state := provisioningState(cluster); state {
		case provisioningSucceeded:
			next.Status = reconcile.StatusDone
		case "Failed", "Canceled":
			next.Status = reconcile.StatusFailed
			next.Message = "provisioning state " + state
		default:
			next.Status = reconcile.StatusRunning
		}
		return &next, nil
	}
}

func provisioningState(cluster *armcontainerservice.ManagedCluster) string {
	if cluster == nil || cluster.Properties == nil || cluster.Properties.ProvisioningState == nil {
		return ""
	}
	return *cluster.Properties.ProvisioningState
}

func (a *Adapter) adminAccess(ctx context.Context, group, name string) (*provider.Endpoint, *provider.Credential, error) {
	data, err := a.api.AdminKubeconfig(ctx, group, name)
	if err != nil {
		return nil, nil, err
	}
	return adminAccess(data)
}

// Credential implements provider.Adapter with the admin client certificate.
func (a *Adapter) Credential(ctx context.Context, name string, _ *provider.Endpoint) (*provider.Credential, error) {
	_, cred, err := a.adminAccess(ctx, naming.ResourceGroup(name), name)
	if err != nil {
		return nil, clustererr.Infrastructure("obtain credential", name, err)
	}
	return cred, nil
}

// InitializeNetworking implements provider.Adapter. AKS clusters come up
// with working pod networking, so there is nothing to apply.
func (a *Adapter) InitializeNetworking(ctx context.Context, _ k8sclient.Client, name string, _ *config.Cluster, _ *provider.Endpoint) error {
	log.FromContext(ctx).V(1).Info("no networking prerequisites", "provider", provider.AKS, "cluster", name)
	return nil
}

// UpsertRecord implements provider.Adapter.
func (a *Adapter) UpsertRecord(ctx context.Context, record provider.Record) error {
	zone, group, err := a.dnsZone(ctx, record.Zone)
	if err != nil {
		return err
	}

	props := &armdns.RecordSetProperties{TTL: to.Ptr(int64(dnsTTL))}
	recordType := armdns.RecordTypeA
	if record.Type() == provider.RecordCNAME {
		recordType = armdns.RecordTypeCNAME
		props.CnameRecord = &armdns.CnameRecord{Cname: to.Ptr(record.Address)}
	} else {
		props.ARecords = []*armdns.ARecord{{IPv4Address: to.Ptr(record.Address)}}
	}

	relative := relativeName(record.Hostname, record.Zone)
	if err := a.api.UpsertRecordSet(ctx, group, zone, relative, recordType, armdns.RecordSet{Properties: props}); err != nil {
		return fmt.Errorf("failed to update record %s: %w", record.FQDN(), err)
	}
	log.FromContext(ctx).Info("dns record updated", "record", record.FQDN(), "type", recordType, "address", record.Address)
	return nil
}

// relativeName converts a hostname into the zone relative record set name;
// the apex is "@".
func relativeName(hostname, zone string) string {
	hostname = strings.TrimSuffix(hostname, ".")
	zone = strings.TrimSuffix(zone, ".")
	switch {
	case hostname == "" || hostname == "@" || hostname == zone:
		return "@"
	case strings.HasSuffix(hostname, "."+zone):
		return strings.TrimSuffix(hostname, "."+zone)
	default:
		return hostname
	}
}

// dnsZone finds the zone serving domain and the resource group holding it.
func (a *Adapter) dnsZone(ctx context.Context, domain string) (zone, group string, err error) {
	zones, err := a.api.ListZones(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to list dns zones: %w", err)
	}
	domain = strings.TrimSuffix(domain, ".")
	for _, z := range zones {
		if z.Name == nil || z.ID == nil || *z.Name != domain {
			continue
		}
		rid, err := arm.ParseResourceID(*z.ID)
		if err != nil {
			return "", "", fmt.Errorf("parse zone resource ID: %w", err)
		}
		return *z.Name, rid.ResourceGroupName, nil
	}
	return "", "", fmt.Errorf("dns zone for %q not found in subscription %s", domain, a.creds.Subscription)
}

// Destroy implements provider.Adapter by deleting the cluster resource group.
func (a *Adapter) Destroy(ctx context.Context, name string) error {
	group := naming.ResourceGroup(name)
	err := (&reconcile.DeleteOperation{
		Name:   group,
		Kind:   "resource group",
		Exists: func(ctx context.Context) (bool, error) { return a.groupExists(ctx, group) },
		Delete: func(ctx context.Context) (*reconcile.Operation, error) {
			return nil, a.api.DeleteResourceGroup(ctx, group)
		},
	}).Execute(ctx)
	return clustererr.Infrastructure("destroy resource group", group, err)
}
