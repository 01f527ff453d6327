package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/imamik/k8shub/internal/clustererr"
)

// AuthorizedCIDR is a network allowed to reach a private control plane.
type AuthorizedCIDR struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	CIDR string `mapstructure:"cidr" yaml:"cidr" json:"cidr"`
}

// Cluster is the typed view of a resolved configuration.
type Cluster struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Version     string `mapstructure:"version"`
	Domain      string `mapstructure:"domain"`
	MachineType string `mapstructure:"machine_type"`
	DiskSizeGB  int    `mapstructure:"disk_size_gb"`
	Size        int    `mapstructure:"size"`

	// GKE networking
	Network               string           `mapstructure:"network"`
	Subnetwork            string           `mapstructure:"subnetwork"`
	CreateSubnetwork      bool             `mapstructure:"create_subnetwork"`
	ClusterIPv4CIDR       string           `mapstructure:"cluster_ipv4_cidr"`
	ServicesIPv4CIDR      string           `mapstructure:"services_ipv4_cidr"`
	MasterIPv4CIDRBlock   string           `mapstructure:"master_ipv4_cidr_block"`
	EnablePrivateNetwork  bool             `mapstructure:"enable_private_network"`
	EnablePrivateEndpoint bool             `mapstructure:"enable_private_endpoint"`
	AuthorizedMasterCIDRs []AuthorizedCIDR `mapstructure:"authorized_master_cidrs"`

	// GKE node pool and features
	MaintenanceWindow             string `mapstructure:"maintenance_window"`
	ImageType                     string `mapstructure:"image_type"`
	MaxSize                       int    `mapstructure:"max_size"`
	Preemptible                   bool   `mapstructure:"preemptible"`
	EnableAutoscaler              bool   `mapstructure:"enable_autoscaler"`
	EnableAutorepair              bool   `mapstructure:"enable_autorepair"`
	EnableAutoupgrade             bool   `mapstructure:"enable_autoupgrade"`
	EnableBinaryAuthorization     bool   `mapstructure:"enable_binary_authorization"`
	EnableHorizontalPodAutoscaler bool   `mapstructure:"enable_horizontal_pod_autoscaler"`
	EnableHTTPLoadBalancer        bool   `mapstructure:"enable_http_loadbalancer"`
	EnableIstio                   bool   `mapstructure:"enable_istio"`
	EnableLogging                 bool   `mapstructure:"enable_logging"`
	EnableMonitoring              bool   `mapstructure:"enable_monitoring"`
	EnableNetworkPolicies         bool   `mapstructure:"enable_network_policies"`

	// AKS
	SSHKey string `mapstructure:"ssh_key"`

	// EKS
	AvailabilityZones  string `mapstructure:"availability_zones"`
	SSHKeypair         string `mapstructure:"ssh_keypair"`
	PrivateSubnet1CIDR string `mapstructure:"private_subnet1_cidr"`
	PrivateSubnet2CIDR string `mapstructure:"private_subnet2_cidr"`
	PrivateSubnet3CIDR string `mapstructure:"private_subnet3_cidr"`
	PublicSubnet1CIDR  string `mapstructure:"public_subnet1_cidr"`
	PublicSubnet2CIDR  string `mapstructure:"public_subnet2_cidr"`
	PublicSubnet3CIDR  string `mapstructure:"public_subnet3_cidr"`

	// Bootstrap
	EnablePodSecurityPolicies bool   `mapstructure:"enable_pod_security_policies"`
	BootstrapImage            string `mapstructure:"bootstrap_image"`
	GrafanaHostname           string `mapstructure:"grafana_hostname"`
	GrafanaPassword           string `mapstructure:"grafana_password"`
	GrafanaVersion            string `mapstructure:"grafana_version"`
	GrafanaDiskSize           int    `mapstructure:"grafana_disk_size"`
	GrafanaServiceType        string `mapstructure:"grafana_service_type"`
	GitHubClientID            string `mapstructure:"github_client_id"`
	GitHubClientSecret        string `mapstructure:"github_client_secret"`
	GitHubOrganization        string `mapstructure:"github_organization"`

	// generated holds values an adapter filled in, to be written back into
	// the resolved configuration.
	generated Values
}

// Decode builds the typed view of values. Keys unknown to Cluster are ignored.
func Decode(values Values) (*Cluster, error) {
	var c Cluster
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &c,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(values)); err != nil {
		return nil, &clustererr.ConfigurationError{Err: fmt.Errorf("failed to decode config: %w", err)}
	}
	return &c, nil
}

// SetGenerated records a value the caller did not supply, such as a generated
// SSH key.
func (c *Cluster) SetGenerated(key string, value any) {
	if c.generated == nil {
		c.generated = Values{}
	}
	c.generated[key] = value
}

// Generated returns the values recorded with SetGenerated.
func (c *Cluster) Generated() Values {
	return c.generated.Clone()
}

// Zones splits the availability zone list.
func (c *Cluster) Zones() []string {
	var zones []string
	for _, z := range strings.Split(c.AvailabilityZones, ",") {
		if z = strings.TrimSpace(z); z != "" {
			zones = append(zones, z)
		}
	}
	return zones
}

// PrivateSubnets returns the three private subnet CIDRs as configured.
func (c *Cluster) PrivateSubnets() [3]string {
	return [3]string{c.PrivateSubnet1CIDR, c.PrivateSubnet2CIDR, c.PrivateSubnet3CIDR}
}

// PublicSubnets returns the three public subnet CIDRs as configured.
func (c *Cluster) PublicSubnets() [3]string {
	return [3]string{c.PublicSubnet1CIDR, c.PublicSubnet2CIDR, c.PublicSubnet3CIDR}
}

// DashboardFQDN is the fully qualified dashboard hostname.
func (c *Cluster) DashboardFQDN() string {
	return c.GrafanaHostname + "." + c.Domain
}
