package gke

import (
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/container/v1"

	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/util/labels"
	"github.com/imamik/k8shub/internal/util/naming"
)

const (
	nodePoolName   = "compute"
	maxPodsPerNode = 110
	dnsTTL         = 120
)

var nodeOAuthScopes = []string{
	"https://www.googleapis.com/auth/compute",
	"https://www.googleapis.com/auth/devstorage.read_only",
	"https://www.googleapis.com/auth/logging.write",
	"https://www.googleapis.com/auth/monitoring",
}

// masterPorts are the control plane ports admitted to private nodes.
var masterPorts = []string{"443", "5443", "8443"}

// clusterSpec builds the cluster creation request for c placed in zones.
func clusterSpec(c *config.Cluster, zones []string) *container.Cluster {
	version := c.Version
	if version == "latest" {
		version = ""
	}

	spec := &container.Cluster{
		Name:                  c.Name,
		Description:           c.Description,
		InitialClusterVersion: c.Version,
		Network:               c.Network,
		Locations:             zones,
		ResourceLabels:        labels.NewLabelBuilder(c.Name).WithProvider("gke").Build(),

		AddonsConfig: &container.AddonsConfig{
			HorizontalPodAutoscaling: &container.HorizontalPodAutoscaling{Disabled: !c.EnableHorizontalPodAutoscaler},
			HttpLoadBalancing:        &container.HttpLoadBalancing{Disabled: !c.EnableHTTPLoadBalancer},
			NetworkPolicyConfig:      &container.NetworkPolicyConfig{Disabled: !c.EnableNetworkPolicies},
		},
		MaintenancePolicy: &container.MaintenancePolicy{
			Window: &container.MaintenanceWindow{
				DailyMaintenanceWindow: &container.DailyMaintenanceWindow{StartTime: c.MaintenanceWindow},
			},
		},
		MasterAuth: &container.MasterAuth{
			ClientCertificateConfig: &container.ClientCertificateConfig{IssueClientCertificate: false},
		},
		IpAllocationPolicy: &container.IPAllocationPolicy{
			UseIpAliases:          true,
			ClusterIpv4CidrBlock:  c.ClusterIPv4CIDR,
			ServicesIpv4CidrBlock: c.ServicesIPv4CIDR,
			CreateSubnetwork:      c.CreateSubnetwork,
			SubnetworkName:        c.Subnetwork,
		},
		MonitoringService:   featureService(c.EnableMonitoring, "monitoring.googleapis.com/kubernetes"),
		LoggingService:      featureService(c.EnableLogging, "logging.googleapis.com/kubernetes"),
		BinaryAuthorization: &container.BinaryAuthorization{Enabled: c.EnableBinaryAuthorization},
		LegacyAbac:          &container.LegacyAbac{Enabled: false},
		NetworkPolicy:       &container.NetworkPolicy{Enabled: c.EnableNetworkPolicies, Provider: "CALICO"},

		NodePools: []*container.NodePool{{
			Name:             nodePoolName,
			InitialNodeCount: int64(c.Size),
			Locations:        zones,
			Version:          version,
			Autoscaling: &container.NodePoolAutoscaling{
				Enabled:      c.EnableAutoscaler,
				MinNodeCount: int64(c.Size),
				MaxNodeCount: int64(c.MaxSize),
			},
			Config: &container.NodeConfig{
				DiskSizeGb:  int64(c.DiskSizeGB),
				ImageType:   c.ImageType,
				MachineType: c.MachineType,
				OauthScopes: nodeOAuthScopes,
				Preemptible: c.Preemptible,
				Tags:        []string{c.Name},
			},
			Management: &container.NodeManagement{
				AutoRepair:  c.EnableAutorepair,
				AutoUpgrade: c.EnableAutoupgrade,
			},
			MaxPodsConstraint: &container.MaxPodsConstraint{MaxPodsPerNode: maxPodsPerNode},
		}},
	}

	if c.EnablePrivateNetwork {
		spec.PrivateClusterConfig = &container.PrivateClusterConfig{
			EnablePrivateEndpoint: c.EnablePrivateEndpoint,
			EnablePrivateNodes:    true,
			MasterIpv4CidrBlock:   c.MasterIPv4CIDRBlock,
		}
		if len(c.AuthorizedMasterCIDRs) > 0 {
			networks := &container.MasterAuthorizedNetworksConfig{Enabled: true}
			for _, a := range c.AuthorizedMasterCIDRs {
				networks.CidrBlocks = append(networks.CidrBlocks, &container.CidrBlock{
					CidrBlock:   a.CIDR,
					DisplayName: a.Name,
				})
			}
			spec.MasterAuthorizedNetworksConfig = networks
		}
	}

	return spec
}

func featureService(enabled bool, service string) string {
	if enabled {
		return service
	}
	return "none"
}

// cloudNAT is the NAT attached to the region router for private nodes.
func cloudNAT() *compute.RouterNat {
	return &compute.RouterNat{
		Name:                          naming.CloudNAT,
		NatIpAllocateOption:           "AUTO_ONLY",
		SourceSubnetworkIpRangesToNat: "ALL_SUBNETWORKS_ALL_IP_RANGES",
		LogConfig: &compute.RouterNatLogConfig{
			Enable: false,
			Filter: "ALL",
		},
	}
}

// masterFirewall admits the private control plane range to the cluster nodes.
func masterFirewall(c *config.Cluster) *compute.Firewall {
	return &compute.Firewall{
		Name:         naming.MasterFirewall(c.Name),
		Description:  "control plane access to " + c.Name + " nodes",
		Network:      "global/networks/" + c.Network,
		Direction:    "INGRESS",
		SourceRanges: []string{c.MasterIPv4CIDRBlock},
		TargetTags:   []string{c.Name},
		Allowed: []*compute.FirewallAllowed{{
			IPProtocol: "tcp",
			Ports:      masterPorts,
		}},
	}
}
