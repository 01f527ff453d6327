package gke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/util/labels"
)

func TestClusterSpec(t *testing.T) {
	t.Parallel()
	c := testCluster()
	c.EnableMonitoring = true
	c.EnableAutoscaler = true

	spec := clusterSpec(c, []string{"us-central1-a"})

	assert.Equal(t, "hub-1", spec.Name)
	assert.Equal(t, "monitoring.googleapis.com/kubernetes", spec.MonitoringService)
	assert.Equal(t, "none", spec.LoggingService)
	assert.True(t, spec.IpAllocationPolicy.UseIpAliases)
	assert.False(t, spec.MasterAuth.ClientCertificateConfig.IssueClientCertificate)
	assert.Equal(t, "09:00", spec.MaintenancePolicy.Window.DailyMaintenanceWindow.StartTime)
	assert.Nil(t, spec.PrivateClusterConfig)

	require.Len(t, spec.NodePools, 1)
	pool := spec.NodePools[0]
	assert.Equal(t, "compute", pool.Name)
	assert.Equal(t, int64(3), pool.InitialNodeCount)
	assert.Empty(t, pool.Version, "latest follows the control plane")
	assert.Equal(t, int64(5), pool.Autoscaling.MaxNodeCount)
	assert.Equal(t, int64(110), pool.MaxPodsConstraint.MaxPodsPerNode)
	assert.Equal(t, []string{"hub-1"}, pool.Config.Tags)
	assert.True(t, labels.IsManaged(spec.ResourceLabels, "hub-1"))
}

func TestClusterSpec_Private(t *testing.T) {
	t.Parallel()
	c := testCluster()
	c.EnablePrivateNetwork = true
	c.MasterIPv4CIDRBlock = "172.16.0.0/28"
	c.AuthorizedMasterCIDRs = []config.AuthorizedCIDR{{Name: "office", CIDR: "203.0.113.0/24"}}

	spec := clusterSpec(c, nil)

	require.NotNil(t, spec.PrivateClusterConfig)
	assert.True(t, spec.PrivateClusterConfig.EnablePrivateNodes)
	assert.Equal(t, "172.16.0.0/28", spec.PrivateClusterConfig.MasterIpv4CidrBlock)
	require.NotNil(t, spec.MasterAuthorizedNetworksConfig)
	require.Len(t, spec.MasterAuthorizedNetworksConfig.CidrBlocks, 1)
	assert.Equal(t, "office", spec.MasterAuthorizedNetworksConfig.CidrBlocks[0].DisplayName)
}

func TestMasterFirewall(t *testing.T) {
	t.Parallel()
	c := testCluster()
	c.MasterIPv4CIDRBlock = "172.16.0.0/28"

	fw := masterFirewall(c)
	assert.Equal(t, "allow-hub-1-masters", fw.Name)
	assert.Equal(t, "global/networks/default", fw.Network)
	require.Len(t, fw.Allowed, 1)
	assert.Equal(t, []string{"443", "5443", "8443"}, fw.Allowed[0].Ports)
}

func TestContainerStatus(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"DONE":     "DONE",
		"PENDING":  "PENDING",
		"RUNNING":  "RUNNING",
		"ABORTING": "RUNNING",
	}
	for in, want := range tests {
		assert.Equal(t, want, string(containerStatus(in)), in)
	}
}
