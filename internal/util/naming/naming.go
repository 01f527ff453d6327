package naming

import (
	"fmt"
	"strings"
)

// Fixed names of shared GKE network resources.
const (
	Router   = "router"
	CloudNAT = "cloud-nat"
)

// MasterFirewall is the GKE rule admitting the control plane to the nodes.
func MasterFirewall(cluster string) string {
	return fmt.Sprintf("allow-%s-masters", cluster)
}

// KubeAPIHost is the DNS label of the API server record.
func KubeAPIHost(cluster string) string {
	return fmt.Sprintf("%s-kubeapi", cluster)
}

// ResourceGroup is the Azure resource group holding an AKS cluster.
func ResourceGroup(cluster string) string {
	return cluster
}

// DNSPrefix is the AKS API server DNS prefix.
func DNSPrefix(cluster string) string {
	return cluster
}

// Stack is the CloudFormation stack of an EKS cluster.
func Stack(cluster string) string {
	return cluster
}

// NodeGroup is the EKS worker node group.
func NodeGroup(cluster string) string {
	return fmt.Sprintf("%s-compute", cluster)
}

// InstanceRole is the IAM role assumed by EKS worker nodes.
func InstanceRole(accountID, cluster string) string {
	return fmt.Sprintf("arn:aws:iam::%s:role/%s-instance-role", accountID, cluster)
}

// FQDN joins a host label and a domain.
func FQDN(host, domain string) string {
	return host + "." + strings.TrimSuffix(domain, ".")
}
