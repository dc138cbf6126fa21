package types

import (
	"context"

	"github.com/spf13/afero"
)

// ResourceLoader is the loader surface visible to protocol resolvers.
type ResourceLoader interface {
	// Resource resolves location with the loader's full rules,
	// including every registered protocol resolver.
	Resource(ctx context.Context, location string) (Resource, error)

	// Fs returns the filesystem used for path based resources.
	Fs() afero.Fs
}

// ProtocolResolver resolves locations carrying a custom protocol.
//
// Resolve returns (res, true, nil) when the location matches and a handle
// was built, (nil, false, nil) when the location is not claimed, and
// (nil, false, err) when the location matches but no handle can be built.
type ProtocolResolver interface {
	Resolve(ctx context.Context, location string, loader ResourceLoader) (Resource, bool, error)
}

// ProtocolResolverFunc adapts an ordinary function to ProtocolResolver.
type ProtocolResolverFunc func(ctx context.Context, location string, loader ResourceLoader) (Resource, bool, error)

// Resolve calls f(ctx, location, loader).
func (f ProtocolResolverFunc) Resolve(ctx context.Context, location string, loader ResourceLoader) (Resource, bool, error) {
	return f(ctx, location, loader)
}
