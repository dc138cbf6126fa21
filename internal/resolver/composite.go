package resolver

import (
	"context"
	"strings"
	"sync"

	"github.com/arloliu/resio/internal/types"
)

// CompositeResolver delegates resolution to sub-resolvers based on scheme.
// Locations whose scheme has no registered sub-resolver are not claimed.
type CompositeResolver struct {
	mu        sync.RWMutex
	resolvers map[string]types.ProtocolResolver
}

// NewCompositeResolver creates an empty CompositeResolver.
func NewCompositeResolver() *CompositeResolver {
	return &CompositeResolver{
		resolvers: make(map[string]types.ProtocolResolver),
	}
}

// Register registers a sub-resolver for a given scheme, replacing any previous one.
// The scheme is given without the trailing colon, e.g. "vault".
func (r *CompositeResolver) Register(scheme string, resolver types.ProtocolResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if resolver == nil {
		delete(r.resolvers, scheme)

		return
	}
	r.resolvers[scheme] = resolver
}

// Schemes returns the registered schemes.
func (r *CompositeResolver) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.resolvers))
	for s := range r.resolvers {
		out = append(out, s)
	}

	return out
}

// Resolve delegates resolution to the sub-resolver registered for the location scheme.
func (r *CompositeResolver) Resolve(ctx context.Context, location string, loader types.ResourceLoader) (types.Resource, bool, error) {
	scheme, _, ok := strings.Cut(location, ":")
	if !ok || scheme == "" {
		return nil, false, nil
	}

	r.mu.RLock()
	resolver, ok := r.resolvers[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	return resolver.Resolve(ctx, location, loader)
}
