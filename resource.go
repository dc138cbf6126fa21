package resio

import (
	"context"

	"github.com/arloliu/resio/internal/resource"
	"github.com/arloliu/resio/internal/types"
	"github.com/spf13/afero"
)

// Resource is a handle to a loadable resource.
// Implementations MUST be safe for concurrent use by multiple goroutines.
type Resource = types.Resource

// Info describes a resource.
type Info = types.Info

// FileResource is a resource backed by a file on an afero filesystem.
type FileResource = resource.FileResource

// URLResource is a resource fetched over http:// or https://.
type URLResource = resource.URLResource

// NewFileResource creates a resource for the file at path on fs.
func NewFileResource(fs afero.Fs, path string) *FileResource {
	return resource.NewFile(fs, path)
}

// NewBytesResource creates an in-memory resource identified by location.
func NewBytesResource(location string, data []byte) Resource {
	return resource.NewBytes(location, data)
}

// Equal reports whether a and b identify the same resource.
// Handles are compared by location, not by instance.
func Equal(a, b Resource) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Location() == b.Location()
}

// ReadResource reads the whole content of r, rejecting content larger
// than limit bytes with ErrTooLarge. A limit <= 0 selects 16MB.
func ReadResource(ctx context.Context, r Resource, limit int64) ([]byte, error) {
	return resource.ReadAll(ctx, r, limit)
}

// ContentType detects the MIME type of r from its content,
// e.g. "application/json" or "text/plain; charset=utf-8".
func ContentType(ctx context.Context, r Resource) (string, error) {
	return resource.ContentType(ctx, r)
}
