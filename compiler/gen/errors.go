// Package gen orchestrates pluggable generators over a schema set.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrGeneratorConflict indicates a duplicate generator registration.
	ErrGeneratorConflict = errors.New("schemaforge: generator name conflict")
	// ErrMissingConfig indicates a pipeline configuration error.
	ErrMissingConfig = errors.New("schemaforge: missing configuration")
	// ErrGenerationFailed indicates a generator execution failure.
	ErrGenerationFailed = errors.New("schemaforge: generation failed")
)

// ConflictError is returned when registering a generator whose name is
// already taken.
type ConflictError struct {
	Name string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("schemaforge: generator %q is already registered", e.Name)
}

// Is reports whether the target matches the sentinel for ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrGeneratorConflict
}

// ConfigError represents a pipeline configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("schemaforge: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("schemaforge: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError records one generator's failure inside a batch. The
// batch itself continues; callers find these in Result.Errors.
type GenerationError struct {
	Generator string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("schemaforge: generation error")
	if e.Generator != "" {
		fmt.Fprintf(&b, " in generator %q", e.Generator)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// IsConflictError reports whether the error is a ConflictError.
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
