// Package main is the entry point for the k8shub CLI.
//
// k8shub provisions managed Kubernetes clusters on GKE, AKS and EKS and
// bootstraps them with a logging and dashboard stack. Runs are idempotent:
// provisioning an existing cluster converges it without recreating anything.
//
// Commands: init, provision, validate, defaults, destroy, version.
//
// For detailed usage information, run:
//
//	k8shub --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/k8shub/cmd/k8shub/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
