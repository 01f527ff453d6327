package wizard

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/k8shub/internal/config"
)

var (
	clusterNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{0,38}[a-z0-9]$`)
	domainRegex      = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)
	hostnameRegex    = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
)

// runProviderGroup prompts for the managed Kubernetes service.
func runProviderGroup(ctx context.Context, result *WizardResult) error {
	result.Provider = ProviderGKE

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Description("Managed Kubernetes service to provision on").
				Options(ToOptions(Providers)...).
				Value(&result.Provider),
		).Title("Provider"),
	).RunWithContext(ctx)
}

// runClusterIdentityGroup prompts for cluster name and DNS domain.
func runClusterIdentityGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster Name").
				Description("Lowercase letters, digits and hyphens, starting with a letter").
				Placeholder("hub").
				Value(&result.ClusterName).
				Validate(validateClusterName),
			huh.NewInput().
				Title("Domain").
				Description("DNS zone that already exists in the provider account").
				Placeholder("example.com").
				Value(&result.Domain).
				Validate(validateDomain),
		).Title("Cluster Identity"),
	).RunWithContext(ctx)
}

// runNodesGroup prompts for version, machine type and node count.
func runNodesGroup(ctx context.Context, result *WizardResult) error {
	versions := Versions[result.Provider]
	machines := MachineTypes[result.Provider]
	result.Version = DefaultValue(versions)
	result.MachineType = DefaultValue(machines)
	result.Size = 1

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Kubernetes Version").
				Options(ToOptions(versions)...).
				Value(&result.Version),
			huh.NewSelect[string]().
				Title("Machine Type").
				Description("Instance size of the worker nodes").
				Options(ToOptions(machines)...).
				Value(&result.MachineType),
			huh.NewSelect[int]().
				Title("Node Count").
				Options(SizeOptions...).
				Value(&result.Size),
		).Title("Nodes"),
	).RunWithContext(ctx)
}

// runProviderSpecificGroup asks the questions that only one provider needs.
func runProviderSpecificGroup(ctx context.Context, result *WizardResult) error {
	switch result.Provider {
	case ProviderGKE:
		result.EnablePrivateNetwork = true
		var cidrs string
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Private Nodes").
					Description("Nodes without public addresses behind Cloud NAT").
					Value(&result.EnablePrivateNetwork),
				huh.NewInput().
					Title("Authorized Control Plane Networks (Optional)").
					Description("Comma-separated CIDRs allowed to reach the API server. Empty allows any address.").
					Placeholder("203.0.113.0/24").
					Value(&cidrs).
					Validate(validateCIDRList),
			).Title("GKE"),
		).RunWithContext(ctx)
		if err != nil {
			return err
		}
		result.AuthorizedCIDRs = splitList(cidrs)
		return nil
	case ProviderEKS:
		zones := "eu-west-2a,eu-west-2b,eu-west-2c"
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Availability Zones").
					Description("Comma-separated zones of the region").
					Value(&zones).
					Validate(validateZones),
				huh.NewInput().
					Title("EC2 Key Pair (Optional)").
					Description("Existing key pair for node SSH access").
					Value(&result.SSHKeypair),
			).Title("EKS"),
		).RunWithContext(ctx)
		if err != nil {
			return err
		}
		result.AvailabilityZones = splitList(zones)
		return nil
	default:
		return nil
	}
}

// runDashboardGroup prompts for how the grafana dashboard is published.
func runDashboardGroup(ctx context.Context, result *WizardResult) error {
	result.GrafanaHostname = "grafana"
	result.GrafanaServiceType = "NodePort"
	if result.Provider == ProviderEKS {
		result.GrafanaServiceType = "LoadBalancer"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard Hostname").
				Description("Published as <hostname>.<domain>").
				Value(&result.GrafanaHostname).
				Validate(validateHostname),
			huh.NewSelect[string]().
				Title("Dashboard Service").
				Options(ServiceTypeOptions...).
				Value(&result.GrafanaServiceType),
			huh.NewInput().
				Title("GitHub Organization (Optional)").
				Description("Restrict dashboard logins to members of this organization").
				Value(&result.GitHubOrganization),
		).Title("Dashboard"),
	).RunWithContext(ctx)
}

// runNetworkGroup prompts for advanced network settings.
func runNetworkGroup(ctx context.Context, result *WizardResult, opts *AdvancedOptions) error {
	var fields []huh.Field
	switch result.Provider {
	case ProviderEKS:
		opts.NetworkCIDR = "10.0.0.0/16"
		fields = append(fields, huh.NewInput().
			Title("VPC CIDR").
			Description("Subnets are carved from this range").
			Value(&opts.NetworkCIDR).
			Validate(validateCIDR))
	default:
		opts.ServicesCIDR = ""
		fields = append(fields, huh.NewInput().
			Title("Services CIDR (Optional)").
			Description("Range for cluster service addresses").
			Value(&opts.ServicesCIDR).
			Validate(validateOptionalCIDR))
	}
	fields = append(fields, huh.NewConfirm().
		Title("Pod Security Policies").
		Description("Bind the restricted policy to every authenticated user").
		Value(&opts.EnablePodSecurityPolicies))

	return huh.NewForm(huh.NewGroup(fields...).Title("Advanced")).RunWithContext(ctx)
}

func validateClusterName(s string) error {
	if s == "" {
		return errClusterNameRequired
	}
	if !clusterNameRegex.MatchString(s) {
		return errClusterNameInvalid
	}
	return nil
}

func validateDomain(s string) error {
	if s == "" {
		return errDomainRequired
	}
	if !domainRegex.MatchString(s) {
		return errDomainInvalid
	}
	return nil
}

func validateHostname(s string) error {
	if !hostnameRegex.MatchString(s) {
		return errHostnameInvalid
	}
	return nil
}

func validateCIDR(s string) error {
	if s == "" {
		return errCIDRRequired
	}
	if config.ValidateCIDR(s) != nil {
		return errCIDRInvalid
	}
	return nil
}

func validateOptionalCIDR(s string) error {
	if s == "" {
		return nil
	}
	return validateCIDR(s)
}

func validateCIDRList(s string) error {
	for _, c := range splitList(s) {
		if err := validateCIDR(c); err != nil {
			return err
		}
	}
	return nil
}

func validateZones(s string) error {
	if len(splitList(s)) == 0 {
		return errZonesRequired
	}
	return nil
}

// splitList splits a comma-separated answer, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
