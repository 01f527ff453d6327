package gke

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/api/compute/v1"
	"google.golang.org/api/container/v1"
	"google.golang.org/api/dns/v1"
	"google.golang.org/api/googleapi"
)

// API is the subset of Google Cloud used by the adapter. Lookups of a single
// resource return a *googleapi.Error with code 404 when it does not exist.
type API interface {
	// Zones lists the compute zones of the session region.
	Zones(ctx context.Context) ([]string, error)

	GetCluster(ctx context.Context, name string) (*container.Cluster, error)
	CreateCluster(ctx context.Context, cluster *container.Cluster) (*container.Operation, error)
	DeleteCluster(ctx context.Context, name string) (*container.Operation, error)
	GetClusterOperation(ctx context.Context, name string) (*container.Operation, error)

	ListNetworks(ctx context.Context) ([]*compute.Network, error)
	ListSubnetworks(ctx context.Context) ([]*compute.Subnetwork, error)
	ListPeeringRoutes(ctx context.Context, network, peering string) ([]*compute.ExchangedPeeringRoute, error)
	GetRouter(ctx context.Context, name string) (*compute.Router, error)
	PatchRouter(ctx context.Context, name string, router *compute.Router) (*compute.Operation, error)
	GetFirewall(ctx context.Context, name string) (*compute.Firewall, error)
	InsertFirewall(ctx context.Context, firewall *compute.Firewall) (*compute.Operation, error)
	// GetComputeOperation re-reads a regional or global compute operation.
	GetComputeOperation(ctx context.Context, op *compute.Operation) (*compute.Operation, error)

	ListManagedZones(ctx context.Context) ([]*dns.ManagedZone, error)
	ListRecordSets(ctx context.Context, zone, name string) ([]*dns.ResourceRecordSet, error)
	CreateChange(ctx context.Context, zone string, change *dns.Change) (*dns.Change, error)

	// AccessToken returns an OAuth2 access token for the cluster API server.
	AccessToken(ctx context.Context) (string, error)
}

// isNotFound reports whether err is a Google API 404.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// notFound builds the error API implementations return for missing resources.
func notFound(message string) error {
	return &googleapi.Error{Code: http.StatusNotFound, Message: message}
}
