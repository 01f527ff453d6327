// Package gke provisions clusters on Google Kubernetes Engine.
//
// The adapter talks to the container, compute and dns v1 APIs through the
// narrow API interface; NewSession backs it with google.golang.org/api
// services authenticated from a service account key. Long running container
// and compute operations are polled with reconcile.Wait.
package gke
