// Package k8sclient provides the Kubernetes access used while bootstrapping a
// freshly provisioned cluster: get-then-create of arbitrary manifests through
// the dynamic client, and typed reads of the objects whose status is polled.
package k8sclient
