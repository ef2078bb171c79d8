package config

import (
	"errors"
	"fmt"
)

// ErrUnknownProductLine is returned when a lookup names a line that is not
// registered.
var ErrUnknownProductLine = errors.New("unknown product line")

// ConfigurationError reports missing or out-of-domain configuration. It is
// fatal: the registry (or the engine built from it) is never partially used.
type ConfigurationError struct {
	Line   string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Line != "" {
		msg += fmt.Sprintf(" in product line %q", e.Line)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" at %s", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Errorf builds a ConfigurationError for a line and field.
func Errorf(line, field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Line: line, Field: field, Reason: fmt.Sprintf(format, args...)}
}
