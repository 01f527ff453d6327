package config

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/imamik/k8shub/internal/clustererr"
)

// Validation severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field that failed validation
	Value    any    // Offending value, if any
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == SeverityError
}

// Report is the outcome of a structural check.
type Report []ValidationError

// Errors returns the error-severity entries.
func (r Report) Errors() []ValidationError {
	var out []ValidationError
	for _, ve := range r {
		if ve.IsError() {
			out = append(out, ve)
		}
	}
	return out
}

// Warnings returns the messages of warning-severity entries.
func (r Report) Warnings() []string {
	var out []string
	for _, ve := range r {
		if !ve.IsError() {
			out = append(out, ve.Field+": "+ve.Message)
		}
	}
	return out
}

// Err converts the first error into a ConfigurationError. The message lists
// how many further violations were found.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	msg := first.Message
	if len(errs) > 1 {
		others := make([]string, 0, len(errs)-1)
		for _, e := range errs[1:] {
			others = append(others, e.Field)
		}
		msg = fmt.Sprintf("%s (also invalid: %s)", msg, strings.Join(others, ", "))
	}
	return &clustererr.ConfigurationError{Field: first.Field, Value: first.Value, Err: fmt.Errorf("%s", msg)}
}

// ValidateStructure checks values against the schema for provider: required
// options, types, minimums, patterns and enums. It makes no network calls.
func (s *Schemas) ValidateStructure(provider string, values Values) error {
	if err := s.checkProvider(provider); err != nil {
		return err
	}
	return s.Check(provider, values).Err()
}

// Check runs the structural checks and returns every finding, including
// warnings for security relevant settings.
func (s *Schemas) Check(provider string, values Values) Report {
	var report Report
	add := func(field string, value any, severity, format string, args ...any) {
		report = append(report, ValidationError{
			Field:    field,
			Value:    value,
			Message:  fmt.Sprintf(format, args...),
			Severity: severity,
		})
	}

	for _, key := range s.Keys(provider) {
		prop := s.properties[key]
		value, present := values[key]

		if !present || value == nil || value == "" {
			if prop.Required {
				add(key, value, SeverityError, "is required")
			}
			continue
		}

		if !matchesType(prop.Type, value) {
			add(key, value, SeverityError, "must be of type %s, got %T", prop.Type, value)
			continue
		}

		if prop.Minimum != nil {
			if n, ok := toFloat(value); ok && n < *prop.Minimum {
				add(key, value, SeverityError, "must be at least %v, got %v", *prop.Minimum, value)
			}
		}

		if prop.Pattern != "" {
			if str, ok := value.(string); ok {
				re, err := regexp.Compile(prop.Pattern)
				if err != nil {
					add(key, value, SeverityError, "schema pattern is invalid: %v", err)
				} else if !re.MatchString(str) {
					add(key, value, SeverityError, "value %q does not match %s", str, prop.Pattern)
				}
			}
		}

		if len(prop.Enum) > 0 && !slices.ContainsFunc(prop.Enum, func(e any) bool { return fmt.Sprint(e) == fmt.Sprint(value) }) {
			add(key, value, SeverityError, "must be one of %v, got %v", prop.Enum, value)
		}
	}

	if _, ok := s.properties[KeyAuthorizedMasterCIDRs]; ok {
		report = append(report, checkAuthorizedCIDRs(provider, values)...)
	}

	return report
}

func checkAuthorizedCIDRs(provider string, values Values) Report {
	raw, ok := values[KeyAuthorizedMasterCIDRs].([]any)
	if !ok {
		return nil
	}

	var report Report
	for i, entry := range raw {
		field := fmt.Sprintf("%s[%d]", KeyAuthorizedMasterCIDRs, i)
		m, ok := entry.(map[string]any)
		if !ok {
			report = append(report, ValidationError{Field: field, Value: entry, Message: "must be an object with name and cidr", Severity: SeverityError})
			continue
		}
		cidr, _ := m["cidr"].(string)
		if err := ValidateCIDR(cidr); err != nil {
			report = append(report, ValidationError{Field: field, Value: cidr, Message: err.Error(), Severity: SeverityError})
			continue
		}
		if cidr == "0.0.0.0/0" && provider == "gke" && values.Bool("enable_private_network") {
			report = append(report, ValidationError{
				Field:    field,
				Value:    cidr,
				Message:  "control plane is reachable from any address (0.0.0.0/0)",
				Severity: SeverityWarning,
			})
		}
	}
	return report
}

func matchesType(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "integer":
		n, ok := toFloat(v)
		return ok && n == math.Trunc(n)
	case "array":
		switch v.(type) {
		case []any, []string, []map[string]any:
			return true
		}
		return false
	case "object":
		switch v.(type) {
		case map[string]any, Values:
			return true
		}
		return false
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
