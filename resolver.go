package resio

import (
	"github.com/arloliu/resio/internal/resolver"
	"github.com/arloliu/resio/internal/types"
	"github.com/spf13/afero"
)

// ProtocolResolver resolves locations carrying a custom protocol.
//
// Resolve returns:
//   - (res, true, nil) when the location matches and a handle was built,
//   - (nil, false, nil) when the location is not claimed ("no match"),
//   - (nil, false, err) when the location matches but cannot be resolved.
//
// The loader argument is only valid for the duration of the call. A
// resolver may use it to resolve other locations but must not register
// resolvers from within Resolve.
// Implementations MUST be safe for concurrent use by multiple goroutines.
type ProtocolResolver = types.ProtocolResolver

// ProtocolResolverFunc adapts an ordinary function to ProtocolResolver.
type ProtocolResolverFunc = types.ProtocolResolverFunc

// ResourceLoader is the loader surface passed to protocol resolvers.
type ResourceLoader = types.ResourceLoader

// PrefixResolver maps a location prefix onto a directory.
type PrefixResolver = resolver.PrefixResolver

// EnvResolver resolves env: locations to environment variables.
type EnvResolver = resolver.EnvResolver

// DotenvResolver resolves dotenv:<location>#KEY locations.
type DotenvResolver = resolver.DotenvResolver

// CompositeResolver dispatches locations to resolvers by scheme.
type CompositeResolver = resolver.CompositeResolver

// CachedResolver memoizes another resolver's outcomes in an LRU cache.
type CachedResolver = resolver.CachedResolver

// NewPrefixResolver resolves prefix+name to the file root/name on fs.
// If fs is nil, the requesting loader's filesystem is used.
//
//	r := resio.NewPrefixResolver("custom:", nil, "/srv/custom")
//	// "custom:foo/bar" -> /srv/custom/foo/bar
//
// "custom:" alone is not claimed. Names escaping root fail to resolve.
func NewPrefixResolver(prefix string, fs afero.Fs, root string) *PrefixResolver {
	return resolver.NewPrefixResolver(prefix, fs, root)
}

// NewEnvResolver resolves env:NAME (also env://NAME) to the environment variable NAME.
func NewEnvResolver() *EnvResolver {
	return resolver.NewEnvResolver()
}

// NewDotenvResolver resolves dotenv:<location>#KEY to KEY in the dotenv file
// found at location, which is loaded through the requesting loader.
func NewDotenvResolver() *DotenvResolver {
	return resolver.NewDotenvResolver()
}

// NewCompositeResolver creates an empty scheme dispatcher. Register
// sub-resolvers with Register("scheme", r).
func NewCompositeResolver() *CompositeResolver {
	return resolver.NewCompositeResolver()
}

// NewCachedResolver wraps r with an LRU cache of size entries (<= 0: unbounded).
func NewCachedResolver(r ProtocolResolver, size int) *CachedResolver {
	return resolver.NewCachedResolver(r, size)
}
