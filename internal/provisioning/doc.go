// Package provisioning drives a cluster request through its lifecycle.
//
// An Agent resolves the request against the schema defaults, validates it,
// asks the provider adapter for the managed cluster, bootstraps it and
// publishes the dashboard in DNS. Each step is a Phase run by RunPhases over
// a shared Context; State accumulates what earlier phases produced and the
// final Result is assembled from it.
//
// One Provision call is strictly sequential. ProvisionAll runs independent
// requests on a worker pool.
package provisioning
