package handlers

import (
	"io"

	"github.com/imamik/k8shub/internal/provider"
)

// Defaults handles the defaults command.
func Defaults(w io.Writer, providerArg, format string) error {
	if err := checkFormat(format, false); err != nil {
		return err
	}
	name, err := provider.ParseName(providerArg)
	if err != nil {
		return err
	}
	schemas, err := loadSchemas()
	if err != nil {
		return err
	}
	defaults, err := schemas.Defaults(name.String())
	if err != nil {
		return err
	}
	return encode(w, defaults, format)
}
