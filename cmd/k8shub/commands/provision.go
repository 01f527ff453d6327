package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8shub/cmd/k8shub/handlers"
)

// requestFlags binds the flags shared by every command that reads a
// cluster request.
type requestFlags struct {
	configPaths []string
	sets        []string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.configPaths, "config", "c", nil, "Path to a cluster request file (repeatable, later files win)")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "Override request values (key=value, comma separated, repeatable)")
}

func (f *requestFlags) request() handlers.RequestSource {
	return handlers.RequestSource{ConfigPaths: f.configPaths, Sets: f.sets}
}

// Provision returns the provision command.
//
// The provision command creates or converges a managed cluster and prints
// the result document.
func Provision() *cobra.Command {
	var (
		flags       requestFlags
		output      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "provision <provider>",
		Short: "Create or converge a managed Kubernetes cluster",
		Long: `Provision creates a managed Kubernetes cluster and bootstraps it.

The request is resolved against the provider defaults, validated, and then
applied in order:
  - Managed cluster (waits for the provider operation to finish)
  - Cluster networking (NAT, firewall or node role mapping)
  - Bootstrap (service accounts, logging stack and dashboard)
  - DNS record for the dashboard

Running provision again with the same request converges the cluster without
recreating anything. Several -c flags with --batch provision one cluster per
file concurrently.

Credentials are read from the environment; see "k8shub init" for the list.

Example:
  k8shub provision gke -c cluster.yaml --set size=3 -o yaml`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"gke", "aks", "eks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if concurrency > 0 {
				return handlers.ProvisionBatch(cmd.Context(), cmd.OutOrStdout(), args[0], flags.request(), output, concurrency)
			}
			return handlers.Provision(cmd.Context(), cmd.OutOrStdout(), args[0], flags.request(), output)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().IntVar(&concurrency, "batch", 0, "Treat each -c file as its own cluster and provision up to N at once")

	return cmd
}

// Validate returns the validate command.
func Validate() *cobra.Command {
	var (
		flags   requestFlags
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "validate <provider>",
		Short: "Validate a cluster request without creating anything",
		Long: `Validate resolves a request against the provider defaults and checks it.

Structural checks (required options, types, patterns, CIDR syntax and overlap)
always run. Unless --offline is given, the provider account is queried as
well, for example for overlapping networks or missing DNS zones.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"gke", "aks", "eks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Validate(cmd.Context(), cmd.OutOrStdout(), args[0], flags.request(), offline)
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&offline, "offline", false, "Only run structural checks")

	return cmd
}

// Defaults returns the defaults command.
func Defaults() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "defaults <provider>",
		Short:     "Print the default request values of a provider",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"gke", "aks", "eks"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Defaults(cmd.OutOrStdout(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: json or yaml")

	return cmd
}
