package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"sigs.k8s.io/yaml"

	"github.com/imamik/k8shub/internal/provisioning"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// isInteractiveTTY decides whether text output is styled.
var isInteractiveTTY = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func checkFormat(format string, allowText bool) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	case formatText:
		if allowText {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// render writes res in the requested format.
func render(w io.Writer, res *provisioning.Result, format string) error {
	switch format {
	case formatText:
		_, err := io.WriteString(w, renderSummary(res, isInteractiveTTY()))
		return err
	default:
		return encode(w, res, format)
	}
}

// encode writes v as JSON or YAML. YAML goes through the JSON tags.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// renderSummary produces the human readable result. Styles are applied only
// when styled is true.
func renderSummary(res *provisioning.Result, styled bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "    %-12s %s\n", label+":", style(valueStyle, value))
	}

	b.WriteString("\n")
	b.WriteString(style(titleStyle, fmt.Sprintf("  k8shub: %s on %s", res.Cluster.Name, res.Provider)))
	b.WriteString("\n")
	b.WriteString(style(dimStyle, "  "+strings.Repeat("═", 30)))
	b.WriteString("\n\n")

	b.WriteString(style(sectionStyle, "  Cluster"))
	b.WriteString("\n")
	line("Endpoint", res.Cluster.Endpoint)
	line("API", res.Cluster.KubeAPI)
	line("Locations", strings.Join(res.Cluster.Locations, ", "))
	line("Account", res.Cluster.ServiceAccountNamespace+"/"+res.Cluster.ServiceAccountName)
	b.WriteString("\n")

	b.WriteString(style(sectionStyle, "  Services"))
	b.WriteString("\n")
	line("Dashboard", res.Services.Dashboard.URL)
	line("Grafana", res.Services.Grafana.URL)
	line("Password", res.Services.Grafana.Password)

	if len(res.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(style(sectionStyle, "  Warnings"))
		b.WriteString("\n")
		for _, w := range res.Warnings {
			b.WriteString(style(warnStyle, "    ! "+w))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(style(dimStyle, "  Use -o yaml for the full result including the access token."))
	b.WriteString("\n")
	return b.String()
}
