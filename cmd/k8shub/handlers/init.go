package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/imamik/k8shub/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	fileExists       = wizard.FileExists
	confirmOverwrite = wizard.ConfirmOverwrite
	runWizard        = wizard.RunWizard
	writeConfig      = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, w io.Writer, outputPath string, advanced, fullOutput bool) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	result, err := runWizard(ctx, advanced)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	values := wizard.BuildValues(result)
	if err := writeConfig(result.Provider, values, outputPath, fullOutput); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(w, outputPath, result)
	return nil
}

func printInitSuccess(w io.Writer, outputPath string, result *wizard.WizardResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration saved!")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  File:      %s\n", outputPath)
	fmt.Fprintf(w, "  Provider:  %s\n", result.Provider)
	fmt.Fprintf(w, "  Cluster:   %s\n", result.ClusterName)
	fmt.Fprintf(w, "  Domain:    %s\n", result.Domain)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next Steps")
	fmt.Fprintln(w, "----------")
	fmt.Fprintf(w, "  1. Review %s if needed\n", outputPath)
	fmt.Fprintln(w, "  2. Export the credentials listed at the top of the file")
	fmt.Fprintln(w, "  3. Create your cluster:")
	fmt.Fprintf(w, "     k8shub provision %s -c %s\n", result.Provider, outputPath)
	fmt.Fprintln(w)
}
