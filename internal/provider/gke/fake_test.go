package gke

import (
	"context"
	"sync"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/container/v1"
	"google.golang.org/api/dns/v1"
)

// fakeAPI is an in-memory API. Operations complete on the first refresh
// unless failOperation is set.
type fakeAPI struct {
	mu sync.Mutex

	zones       []string
	clusters    map[string]*container.Cluster
	networks    []*compute.Network
	subnetworks []*compute.Subnetwork
	peerRoutes  map[string][]*compute.ExchangedPeeringRoute
	routers     map[string]*compute.Router
	firewalls   map[string]*compute.Firewall
	managed     []*dns.ManagedZone
	records     map[string][]*dns.ResourceRecordSet // keyed by zone name

	failOperation string
	listErr       error

	createCalls   int
	deleteCalls   int
	changes       []*dns.Change
	patchedRouter *compute.Router
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		zones:     []string{"us-central1-a", "us-central1-b"},
		clusters:  map[string]*container.Cluster{},
		routers:   map[string]*compute.Router{"router": {Name: "router"}},
		firewalls: map[string]*compute.Firewall{},
		networks:  []*compute.Network{{Name: "default"}},
		subnetworks: []*compute.Subnetwork{{
			Name:        "default",
			Network:     "https://www.googleapis.com/compute/v1/projects/p/global/networks/default",
			IpCidrRange: "10.128.0.0/20",
		}},
		peerRoutes: map[string][]*compute.ExchangedPeeringRoute{},
		managed:    []*dns.ManagedZone{{Name: "example-com", DnsName: "example.com."}},
		records:    map[string][]*dns.ResourceRecordSet{},
	}
}

func (f *fakeAPI) Zones(context.Context) ([]string, error) { return f.zones, nil }

func (f *fakeAPI) GetCluster(_ context.Context, name string) (*container.Cluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clusters[name]
	if !ok {
		return nil, notFound("cluster " + name)
	}
	return c, nil
}

func (f *fakeAPI) CreateCluster(_ context.Context, cluster *container.Cluster) (*container.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failOperation == "" {
		cluster.Endpoint = "34.1.2.3"
		cluster.MasterAuth.ClusterCaCertificate = "Y2EtZGF0YQ==" // "ca-data"
		f.clusters[cluster.Name] = cluster
	}
	return &container.Operation{Name: "create-" + cluster.Name, Status: "RUNNING"}, nil
}

func (f *fakeAPI) DeleteCluster(_ context.Context, name string) (*container.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	delete(f.clusters, name)
	return &container.Operation{Name: "delete-" + name, Status: "PENDING"}, nil
}

func (f *fakeAPI) GetClusterOperation(_ context.Context, name string) (*container.Operation, error) {
	if f.failOperation != "" {
		return &container.Operation{Name: name, Status: "DONE", Error: &container.Status{Message: f.failOperation}}, nil
	}
	return &container.Operation{Name: name, Status: "DONE"}, nil
}

func (f *fakeAPI) ListNetworks(context.Context) ([]*compute.Network, error) {
	return f.networks, f.listErr
}

func (f *fakeAPI) ListSubnetworks(context.Context) ([]*compute.Subnetwork, error) {
	return f.subnetworks, f.listErr
}

func (f *fakeAPI) ListPeeringRoutes(_ context.Context, network, peering string) ([]*compute.ExchangedPeeringRoute, error) {
	return f.peerRoutes[network+"/"+peering], nil
}

func (f *fakeAPI) GetRouter(_ context.Context, name string) (*compute.Router, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routers[name]
	if !ok {
		return nil, notFound("router " + name)
	}
	return r, nil
}

func (f *fakeAPI) PatchRouter(_ context.Context, name string, router *compute.Router) (*compute.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routers[name] = router
	f.patchedRouter = router
	return &compute.Operation{
		Name:       "patch-" + name,
		Status:     "RUNNING",
		TargetLink: "projects/p/regions/us-central1/routers/" + name,
	}, nil
}

func (f *fakeAPI) GetFirewall(_ context.Context, name string) (*compute.Firewall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fw, ok := f.firewalls[name]
	if !ok {
		return nil, notFound("firewall " + name)
	}
	return fw, nil
}

func (f *fakeAPI) InsertFirewall(_ context.Context, firewall *compute.Firewall) (*compute.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.firewalls[firewall.Name] = firewall
	return &compute.Operation{
		Name:       "insert-" + firewall.Name,
		Status:     "RUNNING",
		TargetLink: "projects/p/global/firewalls/" + firewall.Name,
	}, nil
}

func (f *fakeAPI) GetComputeOperation(_ context.Context, op *compute.Operation) (*compute.Operation, error) {
	return &compute.Operation{Name: op.Name, Region: op.Region, Status: "DONE"}, nil
}

func (f *fakeAPI) ListManagedZones(context.Context) ([]*dns.ManagedZone, error) {
	return f.managed, nil
}

func (f *fakeAPI) ListRecordSets(_ context.Context, zone, name string) ([]*dns.ResourceRecordSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*dns.ResourceRecordSet
	for _, rr := range f.records[zone] {
		if rr.Name == name {
			out = append(out, rr)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateChange(_ context.Context, zone string, change *dns.Change) (*dns.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change)

	kept := f.records[zone][:0]
	for _, rr := range f.records[zone] {
		deleted := false
		for _, d := range change.Deletions {
			if d.Name == rr.Name && d.Type == rr.Type {
				deleted = true
			}
		}
		if !deleted {
			kept = append(kept, rr)
		}
	}
	f.records[zone] = append(kept, change.Additions...)
	return change, nil
}

func (f *fakeAPI) AccessToken(context.Context) (string, error) { return "ya29.token", nil }
