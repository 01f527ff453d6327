package aks

import (
	"context"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/dns/armdns"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// adminKubeconfig is a kubeconfig in the shape AKS returns for admin
// credentials. The certificate data decodes to "cert", "key" and "ca".
const adminKubeconfig = `apiVersion: v1
kind: Config
current-context: hub-1
clusters:
- name: hub-1
  cluster:
    server: https://hub-1-dns.hcp.westeurope.azmk8s.io:443
    certificate-authority-data: Y2E=
contexts:
- name: hub-1
  context:
    cluster: hub-1
    user: clusterAdmin_hub-1_hub-1
users:
- name: clusterAdmin_hub-1_hub-1
  user:
    client-certificate-data: Y2VydA==
    client-key-data: a2V5
`

type recordWrite struct {
	group, zone, name string
	recordType        armdns.RecordType
	set               armdns.RecordSet
}

// fakeAPI is an in-memory API. A created resource group becomes visible
// after groupDelay reads; a created cluster reports states in order.
type fakeAPI struct {
	mu sync.Mutex

	groups     map[string]bool
	groupDelay int
	clusters   map[string]*armcontainerservice.ManagedCluster
	states     []string
	zones      []*armdns.Zone

	createdSpec  *armcontainerservice.ManagedCluster
	clusterCalls int
	deleted      []string
	writes       []recordWrite
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		groups:   map[string]bool{},
		clusters: map[string]*armcontainerservice.ManagedCluster{},
		states:   []string{"Creating", "Succeeded"},
		zones: []*armdns.Zone{{
			Name: to.Ptr("example.com"),
			ID:   to.Ptr("/subscriptions/sub/resourceGroups/dns/providers/Microsoft.Network/dnszones/example.com"),
		}},
	}
}

func (f *fakeAPI) GetResourceGroup(_ context.Context, name string) (*armresources.ResourceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.groups[name] {
		return nil, notFound("ResourceGroupNotFound")
	}
	if f.groupDelay > 0 {
		f.groupDelay--
		return nil, notFound("ResourceGroupNotFound")
	}
	return &armresources.ResourceGroup{Name: to.Ptr(name)}, nil
}

func (f *fakeAPI) CreateResourceGroup(_ context.Context, name string, _ armresources.ResourceGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[name] = true
	return nil
}

func (f *fakeAPI) DeleteResourceGroup(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, name)
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeAPI) GetManagedCluster(_ context.Context, group, name string) (*armcontainerservice.ManagedCluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clusters[group+"/"+name]
	if !ok {
		return nil, notFound("ResourceNotFound")
	}
	state := f.states[0]
	if len(f.states) > 1 {
		f.states = f.states[1:]
	}
	c.Properties.ProvisioningState = to.Ptr(state)
	return c, nil
}

func (f *fakeAPI) BeginCreateManagedCluster(_ context.Context, group, name string, cluster armcontainerservice.ManagedCluster) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clusterCalls++
	f.createdSpec = &cluster
	f.clusters[group+"/"+name] = &cluster
	return nil
}

func (f *fakeAPI) AdminKubeconfig(_ context.Context, group, name string) ([]byte, error) {
	return []byte(adminKubeconfig), nil
}

func (f *fakeAPI) ListZones(context.Context) ([]*armdns.Zone, error) {
	return f.zones, nil
}

func (f *fakeAPI) UpsertRecordSet(_ context.Context, group, zone, name string, recordType armdns.RecordType, set armdns.RecordSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, recordWrite{group, zone, name, recordType, set})
	return nil
}
