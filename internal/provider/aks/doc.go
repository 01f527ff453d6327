// Package aks provisions Azure Kubernetes Service clusters.
//
// Every cluster lives in its own resource group named after the cluster, so
// destroying a cluster removes the resource group. DNS records are written
// to the Azure DNS zone serving the cluster domain.
package aks
