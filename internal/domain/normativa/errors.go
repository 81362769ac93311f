package normativa

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTableFound is wrapped by the ConfigurationError returned when no
	// active table, specific or Geral, can be resolved for a family.
	ErrNoTableFound = errors.New("no active normative table")
	// ErrTableNotFound is returned for lookups of a table id that does not exist.
	ErrTableNotFound = errors.New("normative table not found")
	// ErrInvalidInput wraps rejected submissions: missing or negative counts,
	// unknown sub-tests and missing required context.
	ErrInvalidInput = errors.New("invalid input")
)

// ConfigurationError reports missing or misconfigured norm data. Scoring
// must stop and the operator must fix the reference data.
type ConfigurationError struct {
	Tipo   Tipo
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Tipo == "" {
		return "norm configuration: " + e.Reason
	}
	return fmt.Sprintf("norm configuration for %s: %s", e.Tipo, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
