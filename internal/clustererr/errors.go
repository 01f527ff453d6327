// Package clustererr defines the error taxonomy surfaced by the provisioning engine.
//
// Every error crossing a component boundary is one of ConfigurationError,
// InfrastructureError or InitializerError, wrapping the original cause. Poll
// deadlines surface as retry.TimeoutError somewhere in the chain; Classify
// reports those first because the target may still converge, and otherwise
// goes by the outermost kind.
package clustererr

import (
	"errors"
	"fmt"

	"github.com/imamik/k8shub/internal/util/retry"
)

// Kind names a category of the taxonomy.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindInfrastructure Kind = "infrastructure"
	KindInitializer    Kind = "initializer"
	KindTimeout        Kind = "timeout"
	KindUnknown        Kind = "unknown"
)

// ConfigurationError reports bad, missing or conflicting input. It is raised
// before anything is mutated and is never retried.
type ConfigurationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InfrastructureError reports a failed cloud-side operation.
type InfrastructureError struct {
	Op       string
	Resource string
	Err      error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("infrastructure: %s %q: %v", e.Op, e.Resource, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// InitializerError reports a bootstrap failure on a cluster that already exists.
type InitializerError struct {
	Op       string
	Resource string
	Err      error
}

func (e *InitializerError) Error() string {
	return fmt.Sprintf("initializer: %s %q: %v", e.Op, e.Resource, e.Err)
}

func (e *InitializerError) Unwrap() error { return e.Err }

// Configuration builds a ConfigurationError for field with a formatted message.
func Configuration(field string, value any, format string, args ...any) error {
	return &ConfigurationError{Field: field, Value: value, Err: fmt.Errorf(format, args...)}
}

// Infrastructure wraps err as an InfrastructureError unless it already is one.
func Infrastructure(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var existing *InfrastructureError
	if errors.As(err, &existing) {
		return err
	}
	return &InfrastructureError{Op: op, Resource: resource, Err: err}
}

// Initializer wraps err as an InitializerError unless it already is one.
func Initializer(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var existing *InitializerError
	if errors.As(err, &existing) {
		return err
	}
	return &InitializerError{Op: op, Resource: resource, Err: err}
}

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsInfrastructure reports whether err carries an InfrastructureError.
func IsInfrastructure(err error) bool {
	var target *InfrastructureError
	return errors.As(err, &target)
}

// IsInitializer reports whether err carries an InitializerError.
func IsInitializer(err error) bool {
	var target *InitializerError
	return errors.As(err, &target)
}

// Classify maps err onto the taxonomy. A timeout anywhere in the chain wins;
// otherwise the outermost taxonomy error decides, so a configuration error
// raised while bootstrapping an existing cluster counts as an initializer
// failure.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case retry.IsTimeout(err):
		return KindTimeout
	}
	if kind := outermost(err); kind != "" {
		return kind
	}
	return KindUnknown
}

// outermost returns the kind of the first taxonomy error met walking from
// err inwards.
func outermost(err error) Kind {
	for err != nil {
		switch err.(type) {
		case *ConfigurationError:
			return KindConfiguration
		case *InitializerError:
			return KindInitializer
		case *InfrastructureError:
			return KindInfrastructure
		}

		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if kind := outermost(inner); kind != "" {
					return kind
				}
			}
			return ""
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return ""
		}
	}
	return ""
}
