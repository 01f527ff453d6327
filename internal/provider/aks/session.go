package aks

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/dns/armdns"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"

	"github.com/imamik/k8shub/internal/config"
)

// session implements API with the Azure SDK clients of one subscription.
type session struct {
	groups   *armresources.ResourceGroupsClient
	clusters *armcontainerservice.ManagedClustersClient
	zones    *armdns.ZonesClient
	records  *armdns.RecordSetsClient
}

// NewSession authenticates the service principal in creds.
func NewSession(creds *config.AKSCredentials) (API, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cred, err := azidentity.NewClientSecretCredential(creds.Tenant, creds.ClientID, creds.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create client secret credential: %w", err)
	}

	groups, err := armresources.NewResourceGroupsClient(creds.Subscription, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource groups client: %w", err)
	}
	clusters, err := armcontainerservice.NewManagedClustersClient(creds.Subscription, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create managed clusters client: %w", err)
	}
	zones, err := armdns.NewZonesClient(creds.Subscription, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create dns zones client: %w", err)
	}
	records, err := armdns.NewRecordSetsClient(creds.Subscription, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create dns record sets client: %w", err)
	}

	return &session{groups: groups, clusters: clusters, zones: zones, records: records}, nil
}

func (s *session) GetResourceGroup(ctx context.Context, name string) (*armresources.ResourceGroup, error) {
	resp, err := s.groups.Get(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	return &resp.ResourceGroup, nil
}

func (s *session) CreateResourceGroup(ctx context.Context, name string, group armresources.ResourceGroup) error {
	_, err := s.groups.CreateOrUpdate(ctx, name, group, nil)
	return err
}

func (s *session) DeleteResourceGroup(ctx context.Context, name string) error {
	poller, err := s.groups.BeginDelete(ctx, name, nil)
	if err != nil {
		return err
	}
	_, err = poller.PollUntilDone(ctx, nil)
	return err
}

func (s *session) GetManagedCluster(ctx context.Context, group, name string) (*armcontainerservice.ManagedCluster, error) {
	resp, err := s.clusters.Get(ctx, group, name, nil)
	if err != nil {
		return nil, err
	}
	return &resp.ManagedCluster, nil
}

func (s *session) BeginCreateManagedCluster(ctx context.Context, group, name string, cluster armcontainerservice.ManagedCluster) error {
	_, err := s.clusters.BeginCreateOrUpdate(ctx, group, name, cluster, nil)
	return err
}

func (s *session) AdminKubeconfig(ctx context.Context, group, name string) ([]byte, error) {
	resp, err := s.clusters.ListClusterAdminCredentials(ctx, group, name, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Kubeconfigs) == 0 || len(resp.Kubeconfigs[0].Value) == 0 {
		return nil, fmt.Errorf("no admin kubeconfig returned for %s/%s", group, name)
	}
	return resp.Kubeconfigs[0].Value, nil
}

func (s *session) ListZones(ctx context.Context) ([]*armdns.Zone, error) {
	var zones []*armdns.Zone
	pager := s.zones.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		zones = append(zones, page.Value...)
	}
	return zones, nil
}

func (s *session) UpsertRecordSet(ctx context.Context, group, zone, name string, recordType armdns.RecordType, set armdns.RecordSet) error {
	_, err := s.records.CreateOrUpdate(ctx, group, zone, name, recordType, set, nil)
	return err
}
