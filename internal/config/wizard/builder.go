package wizard

import (
	"fmt"
	"strings"

	"github.com/imamik/k8shub/internal/config"
)

// BuildValues converts the wizard answers into a cluster request. Only
// answers that carry information are written; everything else is left to
// the schema defaults.
func BuildValues(result *WizardResult) config.Values {
	values := config.Values{
		"name":         result.ClusterName,
		"domain":       result.Domain,
		"version":      result.Version,
		"machine_type": result.MachineType,
		"size":         result.Size,
	}

	switch result.Provider {
	case ProviderGKE:
		values["enable_private_network"] = result.EnablePrivateNetwork
		if len(result.AuthorizedCIDRs) > 0 {
			cidrs := make([]any, 0, len(result.AuthorizedCIDRs))
			for i, c := range result.AuthorizedCIDRs {
				cidrs = append(cidrs, map[string]any{"name": authorizedName(i), "cidr": c})
			}
			values[config.KeyAuthorizedMasterCIDRs] = cidrs
		}
	case ProviderEKS:
		if len(result.AvailabilityZones) > 0 {
			values["availability_zones"] = strings.Join(result.AvailabilityZones, ",")
		}
		if result.SSHKeypair != "" {
			values["ssh_keypair"] = result.SSHKeypair
		}
	}

	if result.GrafanaHostname != "" {
		values["grafana_hostname"] = result.GrafanaHostname
	}
	if result.GrafanaServiceType != "" {
		values["grafana_service_type"] = result.GrafanaServiceType
	}
	if result.GitHubOrganization != "" {
		values["github_organization"] = result.GitHubOrganization
	}

	if adv := result.AdvancedOptions; adv != nil {
		if adv.NetworkCIDR != "" {
			values["network"] = adv.NetworkCIDR
		}
		if adv.ServicesCIDR != "" {
			values["services_ipv4_cidr"] = adv.ServicesCIDR
		}
		if adv.EnablePodSecurityPolicies {
			values["enable_pod_security_policies"] = true
		}
	}

	return values
}

func authorizedName(i int) string {
	return fmt.Sprintf("authorized-%d", i+1)
}
