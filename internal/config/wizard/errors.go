package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errClusterNameRequired = errors.New("cluster name is required")
	errClusterNameInvalid  = errors.New("cluster name must be lowercase alphanumeric characters or hyphens, starting with a letter")
	errDomainRequired      = errors.New("domain is required")
	errDomainInvalid       = errors.New("domain must be a dns name such as example.com")
	errHostnameInvalid     = errors.New("hostname must be a single dns label such as grafana")
	errCIDRRequired        = errors.New("CIDR is required")
	errCIDRInvalid         = errors.New("invalid CIDR format (expected: x.x.x.x/xx)")
	errZonesRequired       = errors.New("at least one availability zone is required")
)
