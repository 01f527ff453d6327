package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"helm.sh/helm/v3/pkg/strvals"
)

// LoadFile reads a cluster request from a YAML or JSON file.
func LoadFile(path string) (Values, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON document into Values.
func Parse(data []byte) (Values, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return Values(raw), nil
}

// LoadFiles reads each file in order; later files override earlier ones.
func LoadFiles(paths ...string) (Values, error) {
	out := Values{}
	for _, p := range paths {
		v, err := LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = Merge(out, v)
	}
	return out, nil
}

// ApplySet applies helm style overrides ("size=3,domain=example.com") to
// values in place.
func ApplySet(values Values, sets []string) error {
	for _, s := range sets {
		if err := strvals.ParseInto(s, values); err != nil {
			return fmt.Errorf("failed to parse --set %q: %w", s, err)
		}
	}
	return nil
}
