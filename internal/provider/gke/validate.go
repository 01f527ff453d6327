package gke

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/compute/v1"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/util/async"
)

// Validate implements provider.Adapter. Account lookups run concurrently.
// Range overlap checks only apply to clusters that do not exist yet so a
// re-run against a provisioned cluster passes.
func (a *Adapter) Validate(ctx context.Context, c *config.Cluster) error {
	if a.project == "" || a.region == "" {
		return clustererr.Configuration("credentials", nil, "gke requires a project and region")
	}
	if c.DiskSizeGB <= 0 {
		return clustererr.Configuration("disk_size_gb", c.DiskSizeGB, "disk size must be positive")
	}
	if c.Size <= 0 {
		return clustererr.Configuration("size", c.Size, "size must be positive")
	}
	if _, err := time.Parse("15:04", c.MaintenanceWindow); err != nil {
		return clustererr.Configuration("maintenance_window", c.MaintenanceWindow, "maintenance window must be HH:MM")
	}
	if c.CreateSubnetwork {
		return clustererr.Configuration("create_subnetwork", true, "create_subnetwork cannot be combined with an existing subnetwork")
	}
	if c.EnablePrivateNetwork && c.MasterIPv4CIDRBlock == "" {
		return clustererr.Configuration("master_ipv4_cidr_block", "", "you must specify a master_ipv4_cidr_block for a private network")
	}

	var (
		mu       sync.Mutex
		network  *compute.Network
		subnets  []*compute.Subnetwork
		existing bool
	)

	err := async.RunParallel(ctx, []async.Task{
		{Name: "dns zone", Func: func(ctx context.Context) error {
			if _, err := a.managedZone(ctx, c.Domain); err != nil {
				return clustererr.Configuration("domain", c.Domain, "domain %s does not exist within project: %v", c.Domain, err)
			}
			return nil
		}},
		{Name: "network", Func: func(ctx context.Context) error {
			networks, err := a.api.ListNetworks(ctx)
			if err != nil {
				return err
			}
			for _, n := range networks {
				if n.Name == c.Network {
					mu.Lock()
					network = n
					mu.Unlock()
					return nil
				}
			}
			return clustererr.Configuration("network", c.Network, "the network %s does not exist", c.Network)
		}},
		{Name: "subnetwork", Func: func(ctx context.Context) error {
			list, err := a.api.ListSubnetworks(ctx)
			if err != nil {
				return err
			}
			var inNetwork []*compute.Subnetwork
			found := false
			for _, s := range list {
				if !strings.HasSuffix(s.Network, "/"+c.Network) && s.Network != c.Network {
					continue
				}
				inNetwork = append(inNetwork, s)
				if s.Name == c.Subnetwork {
					found = true
				}
			}
			if !found {
				return clustererr.Configuration("subnetwork", c.Subnetwork, "the subnetwork %s does not exist in network %s", c.Subnetwork, c.Network)
			}
			mu.Lock()
			subnets = inNetwork
			mu.Unlock()
			return nil
		}},
		{Name: "cluster", Func: func(ctx context.Context) error {
			ok, err := a.clusterExists(ctx, c.Name)
			mu.Lock()
			existing = ok
			mu.Unlock()
			return err
		}},
	})
	if err != nil {
		return wrapValidation(err)
	}

	if existing {
		return nil
	}
	return a.checkRanges(ctx, c, network, subnets)
}

// checkRanges rejects pod, service and control plane ranges that collide
// with a subnet of the network or a route learned from a peering.
func (a *Adapter) checkRanges(ctx context.Context, c *config.Cluster, network *compute.Network, subnets []*compute.Subnetwork) error {
	type candidate struct{ field, cidr string }
	var candidates []candidate
	if c.ClusterIPv4CIDR != "" {
		candidates = append(candidates, candidate{"cluster_ipv4_cidr", c.ClusterIPv4CIDR})
	}
	if c.ServicesIPv4CIDR != "" {
		candidates = append(candidates, candidate{"services_ipv4_cidr", c.ServicesIPv4CIDR})
	}
	if c.EnablePrivateNetwork {
		candidates = append(candidates, candidate{"master_ipv4_cidr_block", c.MasterIPv4CIDRBlock})
	}

	for _, cand := range candidates {
		if err := config.ValidateCIDR(cand.cidr); err != nil {
			return clustererr.Configuration(cand.field, cand.cidr, "%v", err)
		}
		for _, s := range subnets {
			ranges := []string{s.IpCidrRange}
			for _, r := range s.SecondaryIpRanges {
				ranges = append(ranges, r.IpCidrRange)
			}
			for _, r := range ranges {
				if overlaps(cand.cidr, r) {
					return clustererr.Configuration(cand.field, cand.cidr, "range overlaps subnetwork %s (%s)", s.Name, r)
				}
			}
		}
	}

	if !c.EnablePrivateNetwork || network == nil {
		return nil
	}
	for _, peering := range network.Peerings {
		routes, err := a.api.ListPeeringRoutes(ctx, network.Name, peering.Name)
		if err != nil {
			return fmt.Errorf("failed to list routes of peering %s: %w", peering.Name, err)
		}
		for _, route := range routes {
			for _, cand := range candidates {
				if overlaps(cand.cidr, route.DestRange) {
					return clustererr.Configuration(cand.field, cand.cidr, "conflicting peered network: %s", route.DestRange)
				}
			}
		}
	}
	return nil
}

func overlaps(a, b string) bool {
	ok, err := config.CIDRsOverlap(a, b)
	return err == nil && ok
}

// wrapValidation keeps configuration errors as they are and reports lookup
// failures as configuration problems of the account.
func wrapValidation(err error) error {
	if clustererr.IsConfiguration(err) {
		return err
	}
	return &clustererr.ConfigurationError{Field: "credentials", Err: err}
}
