package config

import (
	"fmt"
	"maps"
)

// Values is a cluster request or a resolved configuration, keyed by option
// name.
type Values map[string]any

// Merge overlays input on defaults. Caller values win; keys the schema does
// not know are kept as given. Neither argument is modified.
func Merge(defaults, input Values) Values {
	out := make(Values, len(defaults)+len(input))
	for k, v := range defaults {
		out[k] = deepCopy(v)
	}
	for k, v := range input {
		out[k] = deepCopy(v)
	}
	return out
}

// Clone returns a deep copy of v.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = deepCopy(val)
	}
	return out
}

// String returns the value of key as a string, or "" when unset.
func (v Values) String(key string) string {
	switch s := v[key].(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// Bool returns the value of key as a boolean.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case Values:
		return t.Clone()
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
