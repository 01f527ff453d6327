package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/imamik/k8shub/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteConfig writes values to a YAML file with a descriptive header.
// If fullOutput is true, every schema default for provider is written as well.
func WriteConfig(provider string, values config.Values, outputPath string, fullOutput bool) error {
	out := values
	if fullOutput {
		schemas, err := config.LoadSchemas()
		if err != nil {
			return err
		}
		defaults, err := schemas.Defaults(provider)
		if err != nil {
			return err
		}
		out = config.Merge(defaults, values)
	}

	yamlBytes, err := yaml.Marshal(map[string]any(out))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(provider, outputPath, fullOutput))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// credentialEnv lists the environment variables each provider reads.
var credentialEnv = map[string][]string{
	ProviderGKE: {"GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_CLOUD_PROJECT", "K8SHUB_GKE_REGION"},
	ProviderAKS: {"AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET", "AZURE_TENANT_ID", "AZURE_SUBSCRIPTION_ID", "K8SHUB_AKS_REGION"},
	ProviderEKS: {"AWS_ACCOUNT_ID", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"},
}

// generateHeader creates the YAML file header comment.
func generateHeader(provider, outputPath string, fullOutput bool) string {
	mode := "minimal"
	note := "\n# Note: This is a minimal config. Use --full flag for all options."
	if fullOutput {
		mode = "full"
		note = ""
	}

	var env strings.Builder
	for _, name := range credentialEnv[provider] {
		fmt.Fprintf(&env, "#   %s\n", name)
	}

	return fmt.Sprintf(`# k8shub cluster configuration
# Generated by: k8shub init
# Generated at: %s
# Provider: %s
# Output mode: %s%s
#
# Required environment variables:
%s#
# Usage:
#   k8shub provision %s -c %s
`, time.Now().Format(time.RFC3339), provider, mode, note, env.String(), provider, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

func defaultConfirmOverwrite(path string) (bool, error) {
	overwrite := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Overwrite " + path + "?").
				Description("The file already exists.").
				Affirmative("Overwrite").
				Negative("Keep").
				Value(&overwrite),
		),
	).Run()
	return overwrite, err
}
