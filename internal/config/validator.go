package config

import (
	"fmt"
	"strings"

	"github.com/coral-mesh/eosprofile/internal/logging"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "validation failed with %d errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&builder, "  %d. %s\n", i+1, err.Error())
	}
	return builder.String()
}

// Validate checks the configuration for unknown values.
func (c *Config) Validate() error {
	var errs []ValidationError

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}

	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, ValidationError{
			Field:   "output.color",
			Message: fmt.Sprintf("must be one of auto, always, never (got %q)", c.Output.Color),
		})
	}

	switch c.Output.DiffFormat {
	case "plain", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "output.diff_format",
			Message: fmt.Sprintf("must be plain or json (got %q)", c.Output.DiffFormat),
		})
	}

	if c.Capture.MaxSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "capture.max_size",
			Message: "must be positive",
		})
	}

	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}
