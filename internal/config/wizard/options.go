package wizard

import "github.com/charmbracelet/huh"

// Option is a selectable value with a human readable description.
type Option struct {
	Value       string
	Label       string
	Description string
}

// Provider keys.
const (
	ProviderGKE = "gke"
	ProviderAKS = "aks"
	ProviderEKS = "eks"
)

// Providers lists the supported managed Kubernetes services.
var Providers = []Option{
	{Value: ProviderGKE, Label: "GKE", Description: "Google Kubernetes Engine"},
	{Value: ProviderAKS, Label: "AKS", Description: "Azure Kubernetes Service"},
	{Value: ProviderEKS, Label: "EKS", Description: "Amazon Elastic Kubernetes Service"},
}

// MachineTypes holds recommended node sizes per provider. The first entry
// matches the schema default.
var MachineTypes = map[string][]Option{
	ProviderGKE: {
		{Value: "n1-standard-2", Label: "n1-standard-2", Description: "2 vCPU, 7.5GB RAM"},
		{Value: "n1-standard-4", Label: "n1-standard-4", Description: "4 vCPU, 15GB RAM"},
		{Value: "e2-standard-4", Label: "e2-standard-4", Description: "4 vCPU, 16GB RAM"},
		{Value: "n2-standard-8", Label: "n2-standard-8", Description: "8 vCPU, 32GB RAM"},
	},
	ProviderAKS: {
		{Value: "Standard_DS2_v2", Label: "Standard_DS2_v2", Description: "2 vCPU, 7GB RAM"},
		{Value: "Standard_D4s_v3", Label: "Standard_D4s_v3", Description: "4 vCPU, 16GB RAM"},
		{Value: "Standard_D8s_v3", Label: "Standard_D8s_v3", Description: "8 vCPU, 32GB RAM"},
	},
	ProviderEKS: {
		{Value: "m5.large", Label: "m5.large", Description: "2 vCPU, 8GB RAM"},
		{Value: "m5.xlarge", Label: "m5.xlarge", Description: "4 vCPU, 16GB RAM"},
		{Value: "t3.large", Label: "t3.large", Description: "2 vCPU, 8GB RAM (burstable)"},
	},
}

// Versions holds the Kubernetes versions offered per provider.
var Versions = map[string][]Option{
	ProviderGKE: {
		{Value: "latest", Label: "latest", Description: "Newest version in the default channel"},
		{Value: "1.30", Label: "1.30", Description: ""},
		{Value: "1.29", Label: "1.29", Description: ""},
	},
	ProviderAKS: {
		{Value: "1.30.6", Label: "1.30.6", Description: "Recommended"},
		{Value: "1.29.9", Label: "1.29.9", Description: ""},
	},
	ProviderEKS: {
		{Value: "1.30", Label: "1.30", Description: "Recommended"},
		{Value: "1.29", Label: "1.29", Description: ""},
	},
}

// SizeOptions are the offered node counts.
var SizeOptions = []huh.Option[int]{
	huh.NewOption("1 node", 1),
	huh.NewOption("2 nodes", 2),
	huh.NewOption("3 nodes", 3),
	huh.NewOption("5 nodes", 5),
}

// ServiceTypeOptions selects how the dashboard is exposed.
var ServiceTypeOptions = []huh.Option[string]{
	huh.NewOption("NodePort behind an ingress", "NodePort"),
	huh.NewOption("LoadBalancer service", "LoadBalancer"),
}

// ToOptions converts options to huh select options.
func ToOptions(opts []Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		label := o.Label
		if o.Description != "" {
			label = o.Label + " - " + o.Description
		}
		out[i] = huh.NewOption(label, o.Value)
	}
	return out
}

// DefaultValue returns the first option's value, or "" when opts is empty.
func DefaultValue(opts []Option) string {
	if len(opts) == 0 {
		return ""
	}
	return opts[0].Value
}
