package gke

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/container/v1"
	"google.golang.org/api/dns/v1"
	"google.golang.org/api/option"

	"github.com/imamik/k8shub/internal/config"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// session implements API with google.golang.org/api services.
type session struct {
	project string
	region  string

	container *container.Service
	compute   *compute.Service
	dns       *dns.Service
	tokens    oauth2.TokenSource
}

// NewSession authenticates against project and region with a service account
// key and returns an API backed by the real services.
func NewSession(ctx context.Context, creds *config.GKECredentials, opts ...option.ClientOption) (API, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	key := []byte(creds.Account)
	opts = append([]option.ClientOption{option.WithAuthCredentialsJSON(option.ServiceAccount, key)}, opts...)

	containerSvc, err := container.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create container service: %w", err)
	}
	computeSvc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute service: %w", err)
	}
	dnsSvc, err := dns.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create dns service: %w", err)
	}

	googleCreds, err := google.CredentialsFromJSON(ctx, key, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}

	return &session{
		project:   creds.Project,
		region:    creds.Region,
		container: containerSvc,
		compute:   computeSvc,
		dns:       dnsSvc,
		tokens:    googleCreds.TokenSource,
	}, nil
}

func (s *session) location() string {
	return fmt.Sprintf("projects/%s/locations/%s", s.project, s.region)
}

func (s *session) Zones(ctx context.Context) ([]string, error) {
	var zones []string
	err := s.compute.Zones.List(s.project).Pages(ctx, func(page *compute.ZoneList) error {
		for _, z := range page.Items {
			if strings.HasPrefix(z.Name, s.region+"-") {
				zones = append(zones, z.Name)
			}
		}
		return nil
	})
	return zones, err
}

func (s *session) GetCluster(ctx context.Context, name string) (*container.Cluster, error) {
	return s.container.Projects.Locations.Clusters.Get(s.location() + "/clusters/" + name).Context(ctx).Do()
}

func (s *session) CreateCluster(ctx context.Context, cluster *container.Cluster) (*container.Operation, error) {
	req := &container.CreateClusterRequest{Cluster: cluster}
	return s.container.Projects.Locations.Clusters.Create(s.location(), req).Context(ctx).Do()
}

func (s *session) DeleteCluster(ctx context.Context, name string) (*container.Operation, error) {
	return s.container.Projects.Locations.Clusters.Delete(s.location() + "/clusters/" + name).Context(ctx).Do()
}

func (s *session) GetClusterOperation(ctx context.Context, name string) (*container.Operation, error) {
	return s.container.Projects.Locations.Operations.Get(s.location() + "/operations/" + name).Context(ctx).Do()
}

func (s *session) ListNetworks(ctx context.Context) ([]*compute.Network, error) {
	var out []*compute.Network
	err := s.compute.Networks.List(s.project).Pages(ctx, func(page *compute.NetworkList) error {
		out = append(out, page.Items...)
		return nil
	})
	return out, err
}

func (s *session) ListSubnetworks(ctx context.Context) ([]*compute.Subnetwork, error) {
	var out []*compute.Subnetwork
	err := s.compute.Subnetworks.List(s.project, s.region).Pages(ctx, func(page *compute.SubnetworkList) error {
		out = append(out, page.Items...)
		return nil
	})
	return out, err
}

func (s *session) ListPeeringRoutes(ctx context.Context, network, peering string) ([]*compute.ExchangedPeeringRoute, error) {
	var out []*compute.ExchangedPeeringRoute
	call := s.compute.Networks.ListPeeringRoutes(s.project, network).
		Direction("INCOMING").
		PeeringName(peering).
		Region(s.region)
	err := call.Pages(ctx, func(page *compute.ExchangedPeeringRoutesList) error {
		out = append(out, page.Items...)
		return nil
	})
	return out, err
}

func (s *session) GetRouter(ctx context.Context, name string) (*compute.Router, error) {
	return s.compute.Routers.Get(s.project, s.region, name).Context(ctx).Do()
}

func (s *session) PatchRouter(ctx context.Context, name string, router *compute.Router) (*compute.Operation, error) {
	return s.compute.Routers.Patch(s.project, s.region, name, router).Context(ctx).Do()
}

func (s *session) GetFirewall(ctx context.Context, name string) (*compute.Firewall, error) {
	return s.compute.Firewalls.Get(s.project, name).Context(ctx).Do()
}

func (s *session) InsertFirewall(ctx context.Context, firewall *compute.Firewall) (*compute.Operation, error) {
	return s.compute.Firewalls.Insert(s.project, firewall).Context(ctx).Do()
}

func (s *session) GetComputeOperation(ctx context.Context, op *compute.Operation) (*compute.Operation, error) {
	if op.Region != "" {
		return s.compute.RegionOperations.Get(s.project, s.region, op.Name).Context(ctx).Do()
	}
	return s.compute.GlobalOperations.Get(s.project, op.Name).Context(ctx).Do()
}

func (s *session) ListManagedZones(ctx context.Context) ([]*dns.ManagedZone, error) {
	var out []*dns.ManagedZone
	err := s.dns.ManagedZones.List(s.project).Pages(ctx, func(page *dns.ManagedZonesListResponse) error {
		out = append(out, page.ManagedZones...)
		return nil
	})
	return out, err
}

func (s *session) ListRecordSets(ctx context.Context, zone, name string) ([]*dns.ResourceRecordSet, error) {
	resp, err := s.dns.ResourceRecordSets.List(s.project, zone).Name(name).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Rrsets, nil
}

func (s *session) CreateChange(ctx context.Context, zone string, change *dns.Change) (*dns.Change, error) {
	return s.dns.Changes.Create(s.project, zone, change).Context(ctx).Do()
}

func (s *session) AccessToken(ctx context.Context) (string, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return token.AccessToken, nil
}
