// Package labels provides consistent labeling for cloud resources.
//
// Every resource k8shub creates carries the cluster name and a managed-by
// marker, whichever provider it lives on.
package labels
