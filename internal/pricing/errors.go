package pricing

import "fmt"

// ConfigError reports a request for a service or question key that the
// pricing rules do not define.
type ConfigError struct {
	Service string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no pricing available for service: %s", e.Service)
}

// ValidationError reports a malformed answer shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer %q: %s", e.Field, e.Reason)
}
