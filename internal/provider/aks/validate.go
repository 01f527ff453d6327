package aks

import (
	"context"

	"github.com/imamik/k8shub/internal/clustererr"
	"github.com/imamik/k8shub/internal/config"
)

// Validate implements provider.Adapter.
func (a *Adapter) Validate(ctx context.Context, c *config.Cluster) error {
	if err := a.creds.Validate(); err != nil {
		return err
	}
	if c.DiskSizeGB <= 0 {
		return clustererr.Configuration("disk_size_gb", c.DiskSizeGB, "disk size must be positive")
	}
	if c.Size <= 0 {
		return clustererr.Configuration("size", c.Size, "size must be positive")
	}
	if c.ServicesIPv4CIDR != "" {
		if err := config.ValidateCIDR(c.ServicesIPv4CIDR); err != nil {
			return clustererr.Configuration("services_ipv4_cidr", c.ServicesIPv4CIDR, "%v", err)
		}
	}
	if _, _, err := a.dnsZone(ctx, c.Domain); err != nil {
		return clustererr.Configuration("domain", c.Domain, "%v", err)
	}
	return nil
}
