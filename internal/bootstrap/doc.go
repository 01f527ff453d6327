// Package bootstrap turns a freshly provisioned managed cluster into a hub
// cluster.
//
// Driver.Run waits for the API server, creates the cluster identities, hands
// the chart bundle to an in-cluster installer job and collects what the
// logging stack published: the dashboard address, its API key and the
// sysadmin service account token. Every object is created only when missing,
// so Run is safe to repeat against a partially bootstrapped cluster.
package bootstrap
