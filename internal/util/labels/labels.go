package labels

import (
	"maps"
	"slices"
)

// Standard label keys. GCE labels allow only lowercase letters, digits,
// dashes and underscores in keys, so the keys carry no domain prefix.
const (
	// KeyCluster identifies which cluster a resource belongs to
	KeyCluster = "k8shub-cluster"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "managed-by"

	// KeyProvider identifies the cloud the cluster runs on
	KeyProvider = "k8shub-provider"
)

// ManagedByK8shub is the KeyManagedBy value of every resource this tool creates.
const ManagedByK8shub = "k8shub"

// LabelBuilder provides a fluent interface for building resource labels
// (GKE resource labels, Azure tags, CloudFormation stack tags).
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedByK8shub,
		},
	}
}

// WithProvider records the provider.
func (lb *LabelBuilder) WithProvider(provider string) *LabelBuilder {
	lb.labels[KeyProvider] = provider
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	return maps.Clone(lb.labels)
}

// BuildPointers returns the labels as the pointer map Azure tags use.
func (lb *LabelBuilder) BuildPointers() map[string]*string {
	out := make(map[string]*string, len(lb.labels))
	for k, v := range lb.labels {
		out[k] = &v
	}
	return out
}

// Each calls fn for every label in key order.
func (lb *LabelBuilder) Each(fn func(key, value string)) {
	for _, k := range slices.Sorted(maps.Keys(lb.labels)) {
		fn(k, lb.labels[k])
	}
}

// IsManaged reports whether labels mark a resource as created by k8shub
// for clusterName.
func IsManaged(labels map[string]string, clusterName string) bool {
	return labels[KeyManagedBy] == ManagedByK8shub && labels[KeyCluster] == clusterName
}
