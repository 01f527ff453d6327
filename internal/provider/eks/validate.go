package eks

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
	zones := c.Zones()
	if len(zones) == 0 {
		return clustererr.Configuration("availability_zones", c.AvailabilityZones, "at least one availability zone is required")
	}
	if len(zones) > 3 {
		return clustererr.Configuration("availability_zones", c.AvailabilityZones, "at most three availability zones are supported")
	}

	if err := config.ValidateCIDR(c.Network); err != nil {
		return clustererr.Configuration("network", c.Network, "%v", err)
	}
	if err := validateSubnets(c); err != nil {
		return err
	}

	key := templateKey(a.creds.TemplateVersion)
	if err := a.api.HeadObject(ctx, a.creds.Bucket, key); err != nil {
		return clustererr.Configuration("credentials.bucket", a.creds.Bucket,
			"template %s not readable in bucket %s: %v", key, a.creds.Bucket, err)
	}
	if _, err := a.hostedZone(ctx, c.Domain); err != nil {
		return clustererr.Configuration("domain", c.Domain, "%v", err)
	}
	return nil
}

// validateSubnets checks that configured subnets parse and lie inside the
// VPC. Empty subnets are derived later.
func validateSubnets(c *config.Cluster) error {
	fields := []struct{ name, cidr string }{
		{"private_subnet1_cidr", c.PrivateSubnet1CIDR},
		{"private_subnet2_cidr", c.PrivateSubnet2CIDR},
		{"private_subnet3_cidr", c.PrivateSubnet3CIDR},
		{"public_subnet1_cidr", c.PublicSubnet1CIDR},
		{"public_subnet2_cidr", c.PublicSubnet2CIDR},
		{"public_subnet3_cidr", c.PublicSubnet3CIDR},
	}
	for _, f := range fields {
		if f.cidr == "" {
			continue
		}
		if err := config.ValidateCIDR(f.cidr); err != nil {
			return clustererr.Configuration(f.name, f.cidr, "%v", err)
		}
		inside, err := config.CIDRContains(c.Network, f.cidr)
		if err != nil {
			return clustererr.Configuration(f.name, f.cidr, "%v", err)
		}
		if !inside {
			return clustererr.Configuration(f.name, f.cidr, "subnet %s is outside the VPC %s", f.cidr, c.Network)
		}
	}
	if _, _, err := subnets(c); err != nil {
		return clustererr.Configuration("network", c.Network, "%v", err)
	}
	return nil
}
