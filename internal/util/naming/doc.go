// Package naming derives the names of cloud and Kubernetes resources that
// belong to a cluster.
//
// Every derived name is a pure function of the cluster name (and domain
// where DNS is involved), so repeated runs address the same resources.
package naming
