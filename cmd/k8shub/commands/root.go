// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8shub/cmd/k8shub/handlers"
)

// Root returns the root command for the k8shub CLI.
//
// The root command installs the logger before any subcommand runs and
// pushes the run's metrics afterwards when a Pushgateway is configured.
func Root() *cobra.Command {
	var (
		debug       bool
		pushgateway string
	)

	cmd := &cobra.Command{
		Use:           "k8shub",
		Short:         "Provision managed Kubernetes on GKE, AKS and EKS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(handlers.SetupLogging(cmd.Context(), debug))
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.PushMetrics(cmd.Context(), pushgateway)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable development logging")
	cmd.PersistentFlags().StringVar(&pushgateway, "pushgateway", "", "Prometheus Pushgateway URL to push run metrics to")

	cmd.AddCommand(Init())
	cmd.AddCommand(Provision())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Defaults())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Version())

	return cmd
}
