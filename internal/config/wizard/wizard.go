package wizard

import (
	"context"
	"fmt"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	Provider    string
	ClusterName string
	Domain      string

	Version     string
	MachineType string
	Size        int

	// GKE
	EnablePrivateNetwork bool
	AuthorizedCIDRs      []string

	// EKS
	AvailabilityZones []string
	SSHKeypair        string

	// Dashboard
	GrafanaHostname    string
	GrafanaServiceType string
	GitHubOrganization string

	// Advanced options (only set in advanced mode)
	AdvancedOptions *AdvancedOptions
}

// AdvancedOptions holds advanced configuration options.
type AdvancedOptions struct {
	NetworkCIDR               string
	ServicesCIDR              string
	EnablePodSecurityPolicies bool
}

// RunWizard runs the interactive configuration wizard.
// If advanced is true, additional network options are shown.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, advanced bool) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runProviderGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	if err := runClusterIdentityGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("cluster identity: %w", err)
	}

	if err := runNodesGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}

	if err := runProviderSpecificGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("%s: %w", result.Provider, err)
	}

	if err := runDashboardGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	if advanced {
		advOpts := &AdvancedOptions{}
		if err := runNetworkGroup(ctx, result, advOpts); err != nil {
			return nil, fmt.Errorf("network: %w", err)
		}
		result.AdvancedOptions = advOpts
	}

	return result, nil
}
