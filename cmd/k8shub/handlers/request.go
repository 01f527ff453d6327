package handlers

import (
	"fmt"

	"github.com/imamik/k8shub/internal/config"
)

// RequestSource names where a cluster request comes from: files merged in
// order, then --set overrides.
type RequestSource struct {
	ConfigPaths []string
	Sets        []string
}

// Load reads the merged request.
func (s RequestSource) Load() (config.Values, error) {
	values, err := config.LoadFiles(s.ConfigPaths...)
	if err != nil {
		return nil, err
	}
	if err := config.ApplySet(values, s.Sets); err != nil {
		return nil, err
	}
	return values, nil
}

// LoadEach reads one request per file, each with the --set overrides
// applied.
func (s RequestSource) LoadEach() ([]config.Values, error) {
	if len(s.ConfigPaths) == 0 {
		return nil, fmt.Errorf("at least one --config file is required")
	}
	out := make([]config.Values, 0, len(s.ConfigPaths))
	for _, path := range s.ConfigPaths {
		values, err := RequestSource{ConfigPaths: []string{path}, Sets: s.Sets}.Load()
		if err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	return out, nil
}
