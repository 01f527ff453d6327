package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8shub/cmd/k8shub/handlers"
)

// Init returns the command for interactively creating a cluster request.
//
// Flags:
//
//	--output, -o: Path to output file (default "cluster.yaml")
//	--advanced, -a: Show advanced configuration options
//	--full, -f: Output full YAML with all options (default: minimal output)
func Init() *cobra.Command {
	var (
		outputPath string
		advanced   bool
		fullOutput bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a cluster request",
		Long: `Interactively create a cluster request file.

This command guides you through configuring your cluster step by step.
It will ask about:

  - Cloud provider (GKE, AKS or EKS)
  - Cluster name and DNS domain
  - Kubernetes version and node pool
  - Provider specific networking
  - Dashboard hostname, service type and GitHub login

Use --advanced for network CIDRs and pod security policies.

Use --full to write every option with its default (useful for manual
editing). By default only the answered values are written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), cmd.OutOrStdout(), outputPath, advanced, fullOutput)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "cluster.yaml", "Output file path")
	cmd.Flags().BoolVarP(&advanced, "advanced", "a", false, "Show advanced configuration options")
	cmd.Flags().BoolVarP(&fullOutput, "full", "f", false, "Output full YAML with all options")

	return cmd
}
