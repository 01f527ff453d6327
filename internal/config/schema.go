package config

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/imamik/k8shub/internal/clustererr"
)

//go:embed schema.yaml
var schemaYAML []byte

// KeyAuthorizedMasterCIDRs is the only option whose default is synthesised
// rather than read from the schema.
const KeyAuthorizedMasterCIDRs = "authorized_master_cidrs"

// Property describes one recognised option.
type Property struct {
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Default     any            `yaml:"default"`
	Defaults    map[string]any `yaml:"defaults"`
	Providers   []string       `yaml:"providers"`
	Required    bool           `yaml:"required"`
	Minimum     *float64       `yaml:"minimum"`
	Pattern     string         `yaml:"pattern"`
	Enum        []any          `yaml:"enum"`
}

// HasDefault reports whether the property declares a default for provider.
func (p Property) HasDefault(provider string) bool {
	if _, ok := p.Defaults[provider]; ok {
		return true
	}
	return p.Default != nil
}

// DefaultFor returns the provider specific default, falling back to the
// shared one.
func (p Property) DefaultFor(provider string) any {
	if v, ok := p.Defaults[provider]; ok {
		return v
	}
	return p.Default
}

// AppliesTo reports whether provider accepts the option.
func (p Property) AppliesTo(provider string) bool {
	return len(p.Providers) == 0 || slices.Contains(p.Providers, provider)
}

// Schemas is the parsed option schema. It is built once and never mutated,
// so one value can be shared by concurrent provisioning calls.
type Schemas struct {
	providers  []string
	properties map[string]Property
	keys       []string
}

type schemaFile struct {
	Providers  []string            `yaml:"providers"`
	Properties map[string]Property `yaml:"properties"`
}

// LoadSchemas parses the embedded schema.
func LoadSchemas() (*Schemas, error) {
	return ParseSchemas(schemaYAML)
}

// ParseSchemas parses a schema document.
func ParseSchemas(data []byte) (*Schemas, error) {
	var raw schemaFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if len(raw.Providers) == 0 {
		return nil, fmt.Errorf("schema declares no providers")
	}

	keys := make([]string, 0, len(raw.Properties))
	for key, prop := range raw.Properties {
		switch prop.Type {
		case "string", "integer", "boolean", "array", "object":
		default:
			return nil, fmt.Errorf("schema property %s has unsupported type %q", key, prop.Type)
		}
		for _, p := range prop.Providers {
			if !slices.Contains(raw.Providers, p) {
				return nil, fmt.Errorf("schema property %s names unknown provider %q", key, p)
			}
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &Schemas{
		providers:  raw.Providers,
		properties: raw.Properties,
		keys:       keys,
	}, nil
}

// Providers lists the provider names the schema knows.
func (s *Schemas) Providers() []string {
	return slices.Clone(s.providers)
}

// Property returns the named property.
func (s *Schemas) Property(key string) (Property, bool) {
	p, ok := s.properties[key]
	return p, ok
}

// Keys lists the options provider accepts, sorted.
func (s *Schemas) Keys(provider string) []string {
	var out []string
	for _, k := range s.keys {
		if s.properties[k].AppliesTo(provider) {
			out = append(out, k)
		}
	}
	return out
}

func (s *Schemas) checkProvider(provider string) error {
	if !slices.Contains(s.providers, provider) {
		return clustererr.Configuration("provider", provider, "unknown provider %q, expected one of %v", provider, s.providers)
	}
	return nil
}

// Defaults maps every option provider accepts to its default value.
//
// Required options without a default are left out. The authorized master
// CIDR list falls back to a single entry allowing 0.0.0.0/0 when the schema
// declares no default: the control plane is then reachable from anywhere.
func (s *Schemas) Defaults(provider string) (Values, error) {
	if err := s.checkProvider(provider); err != nil {
		return nil, err
	}

	values := Values{}
	for _, key := range s.Keys(provider) {
		prop := s.properties[key]
		if key == KeyAuthorizedMasterCIDRs {
			continue
		}
		if !prop.HasDefault(provider) {
			continue
		}
		values[key] = deepCopy(prop.DefaultFor(provider))
	}

	if prop, ok := s.properties[KeyAuthorizedMasterCIDRs]; ok && prop.AppliesTo(provider) {
		if prop.HasDefault(provider) {
			values[KeyAuthorizedMasterCIDRs] = deepCopy(prop.DefaultFor(provider))
		} else {
			values[KeyAuthorizedMasterCIDRs] = OpenAuthorizedCIDRs()
		}
	}
	return values, nil
}

// OpenAuthorizedCIDRs is the permissive fallback for the authorized master
// CIDR list.
func OpenAuthorizedCIDRs() []any {
	return []any{map[string]any{"name": "any", "cidr": "0.0.0.0/0"}}
}
