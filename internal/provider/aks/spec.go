package aks

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"

	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/util/labels"
	"github.com/imamik/k8shub/internal/util/naming"
)

const (
	agentPoolName      = "compute"
	adminUsername      = "azureuser"
	maxPodsPerNode     = 110
	dnsTTL             = 120
	defaultServiceCIDR = "10.0.0.0/16"
	routingAddon       = "httpApplicationRouting"
	routingZoneKey     = "HTTPApplicationRoutingZoneName"
)

// servicePrincipal is the identity the cluster uses to manage Azure
// resources.
type servicePrincipal struct {
	ClientID string
	Secret   string
}

// managedClusterSpec builds the managed cluster for c. sshKey is the
// authorized key installed for adminUsername.
func managedClusterSpec(c *config.Cluster, location, sshKey string, sp servicePrincipal) (armcontainerservice.ManagedCluster, error) {
	serviceCIDR := c.ServicesIPv4CIDR
	if serviceCIDR == "" {
		serviceCIDR = defaultServiceCIDR
	}
	dnsServiceIP, err := config.CIDRHost(serviceCIDR, 10)
	if err != nil {
		return armcontainerservice.ManagedCluster{}, fmt.Errorf("failed to derive dns service ip: %w", err)
	}

	cluster := armcontainerservice.ManagedCluster{
		Location: to.Ptr(location),
		Tags:     labels.NewLabelBuilder(c.Name).WithProvider("aks").BuildPointers(),
		Properties: &armcontainerservice.ManagedClusterProperties{
			DNSPrefix:  to.Ptr(naming.DNSPrefix(c.Name)),
			EnableRBAC: to.Ptr(true),
			AddonProfiles: map[string]*armcontainerservice.ManagedClusterAddonProfile{
				routingAddon: {
					Enabled: to.Ptr(true),
					Config:  map[string]*string{routingZoneKey: to.Ptr(c.Domain)},
				},
			},
			AgentPoolProfiles: []*armcontainerservice.ManagedClusterAgentPoolProfile{{
				Name:         to.Ptr(agentPoolName),
				Count:        to.Ptr(int32(c.Size)),
				MaxPods:      to.Ptr(int32(maxPodsPerNode)),
				OSDiskSizeGB: to.Ptr(int32(c.DiskSizeGB)),
				OSType:       to.Ptr(armcontainerservice.OSTypeLinux),
				Type:         to.Ptr(armcontainerservice.AgentPoolTypeVirtualMachineScaleSets),
				Mode:         to.Ptr(armcontainerservice.AgentPoolModeSystem),
				VMSize:       to.Ptr(c.MachineType),
			}},
			ServicePrincipalProfile: &armcontainerservice.ManagedClusterServicePrincipalProfile{
				ClientID: to.Ptr(sp.ClientID),
				Secret:   to.Ptr(sp.Secret),
			},
			LinuxProfile: &armcontainerservice.LinuxProfile{
				AdminUsername: to.Ptr(adminUsername),
				SSH: &armcontainerservice.SSHConfiguration{
					PublicKeys: []*armcontainerservice.SSHPublicKey{{KeyData: to.Ptr(sshKey)}},
				},
			},
			NetworkProfile: &armcontainerservice.NetworkProfile{
				NetworkPlugin: to.Ptr(armcontainerservice.NetworkPluginAzure),
				NetworkPolicy: to.Ptr(armcontainerservice.NetworkPolicyAzure),
				DNSServiceIP:  to.Ptr(dnsServiceIP),
				ServiceCidr:   to.Ptr(serviceCIDR),
			},
		},
	}
	if c.Version != "" && c.Version != "latest" {
		cluster.Properties.KubernetesVersion = to.Ptr(c.Version)
	}
	return cluster, nil
}
