// Package provider defines the contract every managed Kubernetes service
// implements and the values adapters hand back to the orchestrator.
//
// An Adapter wraps one authenticated session against a cloud (GKE, AKS or
// EKS). Each CreateInfrastructure call walks the same states: the cluster is
// looked up, created when missing, and the returned long running operation
// is polled until it is ready or has failed. Adapters never delete anything
// on failure.
//
// The concrete adapters live in the gke, aks and eks subpackages; registry
// builds one from credentials.
package provider
