package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/arloliu/resio/internal/resource"
	"github.com/arloliu/resio/internal/types"
)

// EnvResolver resolves locations using the env: scheme.
type EnvResolver struct {
	lookup func(string) (string, bool)
}

// NewEnvResolver creates a new EnvResolver reading the process environment.
func NewEnvResolver() *EnvResolver {
	return &EnvResolver{}
}

// NewEnvResolverWithLookup creates an EnvResolver backed by lookup.
func NewEnvResolverWithLookup(lookup func(string) (string, bool)) *EnvResolver {
	return &EnvResolver{lookup: lookup}
}

// Resolve returns a resource for the environment variable named in the location.
// Accepted forms:
//
//	env:VAR_NAME
//	env://VAR_NAME
//	env:///VAR_NAME
//
// The variable does not have to be set; an unset variable yields a resource
// that does not exist.
func (r *EnvResolver) Resolve(_ context.Context, location string, _ types.ResourceLoader) (types.Resource, bool, error) {
	if !strings.HasPrefix(location, "env:") {
		return nil, false, nil
	}

	// Loose parsing: env var names may contain characters url.Parse rejects.
	varName := strings.TrimLeft(strings.TrimPrefix(location, "env:"), "/")
	if varName == "" {
		return nil, false, errors.New("empty environment variable name")
	}

	return resource.NewEnv(varName, r.lookup), true, nil
}
