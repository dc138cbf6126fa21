package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyLocation is returned when a loader is asked for an empty location.
	ErrEmptyLocation = errors.New("empty resource location")
	// ErrNoEmbeddedFS is returned for embed: locations when no embedded filesystem is configured.
	ErrNoEmbeddedFS = errors.New("no embedded filesystem configured")
	// ErrRelativeUnsupported is returned by resources that cannot create relative resources.
	ErrRelativeUnsupported = errors.New("relative resources are not supported")
	// ErrTooLarge is returned when resource content exceeds the configured size limit.
	ErrTooLarge = errors.New("resource content exceeds maximum size")
)

// ResolutionError reports a location that a protocol resolver claimed
// but could not turn into a resource.
type ResolutionError struct {
	Location string // the requested location
	Resolver string // resolver type, e.g. "*resolver.PrefixResolver"
	Err      error
}

// Error returns the string representation of the ResolutionError.
func (e *ResolutionError) Error() string {
	var sb strings.Builder
	sb.WriteString("failed to resolve '")
	sb.WriteString(e.Location)
	sb.WriteString("'")

	if e.Resolver != "" {
		sb.WriteString(" (resolver ")
		sb.WriteString(e.Resolver)
		sb.WriteString(")")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// FieldError represents an invalid configuration field.
type FieldError struct {
	Path    string // e.g., "Prefixes[0].Dir"
	Tag     string // failed validation tag, e.g. "required"
	Value   string // the invalid value
	Message string
	Err     error
}

// Error returns the string representation of the FieldError.
func (e *FieldError) Error() string {
	var sb strings.Builder
	sb.WriteString("field '")
	sb.WriteString(e.Path)
	sb.WriteString("'")

	if e.Tag != "" {
		sb.WriteString(" (tag '")
		sb.WriteString(e.Tag)
		sb.WriteString("')")
	}

	if e.Value != "" {
		sb.WriteString(": invalid value '")
		sb.WriteString(e.Value)
		sb.WriteString("'")
	}

	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError wraps validation errors from the validator package.
type ValidationError struct {
	Errors []error
}

// Error returns the string representation of the ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation failed: %v", e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range e.Errors {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		if i < len(e.Errors)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Unwrap returns the wrapped errors.
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}
