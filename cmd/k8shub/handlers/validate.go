package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/imamik/k8shub/internal/config"
	"github.com/imamik/k8shub/internal/provider"
)

// Validate handles the validate command. Offline runs only the structural
// checks and needs no credentials.
func Validate(ctx context.Context, w io.Writer, providerArg string, src RequestSource, offline bool) error {
	name, err := provider.ParseName(providerArg)
	if err != nil {
		return err
	}
	request, err := src.Load()
	if err != nil {
		return err
	}

	var warnings []string
	if offline {
		warnings, err = validateStructure(name, request)
	} else {
		agent, aerr := newAgent(ctx, name)
		if aerr != nil {
			return aerr
		}
		_, warnings, err = agent.Validate(ctx, name, request)
	}

	for _, warning := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if err != nil {
		return failure("validation", err)
	}
	fmt.Fprintf(w, "%s request for %q is valid\n", name, request.String("name"))
	return nil
}

func validateStructure(name provider.Name, request config.Values) ([]string, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	defaults, err := schemas.Defaults(name.String())
	if err != nil {
		return nil, err
	}
	report := schemas.Check(name.String(), config.Merge(defaults, request))
	return report.Warnings(), report.Err()
}
