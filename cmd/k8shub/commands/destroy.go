package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8shub/cmd/k8shub/handlers"
)

// Destroy returns the destroy command.
//
// The destroy command deletes a managed cluster and waits until the
// provider reports it gone.
func Destroy() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "destroy <provider> [name]",
		Short: "Destroy a managed Kubernetes cluster",
		Long: `Destroy removes a managed cluster from the provider.

The cluster is named either as the second argument or by the name option of
the request given with -c. Depending on the provider this deletes:
  - GKE: the cluster
  - AKS: the cluster's resource group and everything in it
  - EKS: the CloudFormation stack

DNS records created for the dashboard are left in place.

Example:
  k8shub destroy aks hub-1

WARNING: This operation is irreversible. All cluster data will be lost.`,
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"gke", "aks", "eks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return handlers.Destroy(cmd.Context(), args[0], name, flags.request())
		},
	}

	flags.bind(cmd)

	return cmd
}
