package config

import "fmt"

// UnknownSiteError is returned when a requested label is not in the registry.
type UnknownSiteError struct {
	Label string
}

func (e UnknownSiteError) Error() string {
	return fmt.Sprintf("unknown site %q", e.Label)
}
