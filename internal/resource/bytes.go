package resource

import (
	"bytes"
	"context"
	"io"

	"github.com/arloliu/resio/internal/types"
)

// BytesResource is an in-memory resource.
type BytesResource struct {
	location    string
	description string
	data        []byte
}

// NewBytes creates an in-memory resource identified by location.
// The data slice must not be modified afterwards.
func NewBytes(location string, data []byte) *BytesResource {
	return &BytesResource{location: location, description: "byte array", data: data}
}

func (r *BytesResource) Location() string { return r.location }

func (r *BytesResource) Description() string {
	return r.description + " [" + r.location + "]"
}

func (r *BytesResource) Exists(context.Context) bool { return true }

func (r *BytesResource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(r.data)), nil
}

func (r *BytesResource) Stat(context.Context) (types.Info, error) {
	return types.Info{Location: r.location, Size: int64(len(r.data))}, nil
}

func (r *BytesResource) Relative(string) (types.Resource, error) {
	return nil, types.ErrRelativeUnsupported
}
