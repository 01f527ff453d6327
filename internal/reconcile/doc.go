// Package reconcile implements the ensure-exists pattern used for every
// externally named resource: clusters, routers, firewall rules, resource
// groups, stacks, DNS records and Kubernetes objects.
//
// An [EnsureOperation] asks whether the resource exists, creates it if not,
// waits for the returned [Operation] through retry.Await, and reads the
// resource back. Running it twice converges on the same resource without a
// second create call.
package reconcile
