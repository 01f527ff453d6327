// Package wizard provides an interactive configuration wizard for k8shub.
//
// RunWizard asks for the provider and the handful of options a new cluster
// needs, BuildValues turns the answers into a cluster request and WriteConfig
// renders it as YAML. Prompts use charmbracelet/huh.
package wizard
