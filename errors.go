package resio

import "github.com/arloliu/resio/internal/types"

// ResolutionError reports a location that could not be resolved, either
// because a protocol resolver claimed it and failed, or because the
// default strategy rejected it.
type ResolutionError = types.ResolutionError

// FieldError represents an invalid configuration field.
type FieldError = types.FieldError

// ValidationError wraps configuration validation errors.
type ValidationError = types.ValidationError

var (
	// ErrEmptyLocation is returned when resolving an empty location.
	ErrEmptyLocation = types.ErrEmptyLocation
	// ErrNoEmbeddedFS is returned for embed: locations when no embedded filesystem is configured.
	ErrNoEmbeddedFS = types.ErrNoEmbeddedFS
	// ErrRelativeUnsupported is returned by resources that cannot create relative resources.
	ErrRelativeUnsupported = types.ErrRelativeUnsupported
	// ErrTooLarge is returned when content exceeds the size limit.
	ErrTooLarge = types.ErrTooLarge
)
