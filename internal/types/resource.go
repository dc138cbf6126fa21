package types

import (
	"context"
	"io"
	"time"
)

// Resource is a handle to a loadable resource.
//
// A handle is cheap to create: constructing one never reads content.
// Implementations MUST be safe for concurrent use by multiple goroutines.
type Resource interface {
	// Location returns the canonical location that identifies the resource.
	// Two handles with the same location refer to the same resource.
	Location() string

	// Description returns a human readable description used in errors and logs.
	Description() string

	// Exists reports whether the resource is currently available.
	Exists(ctx context.Context) bool

	// Open returns a new stream over the resource content.
	// The caller must close it. A missing resource yields an error
	// wrapping os.ErrNotExist.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Stat returns the resource metadata. Unknown fields are left zero.
	Stat(ctx context.Context) (Info, error)

	// Relative returns a resource located relative to this one.
	Relative(path string) (Resource, error)
}

// Info describes a resource.
type Info struct {
	Location string    `json:"location"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime,omitzero"`
}
