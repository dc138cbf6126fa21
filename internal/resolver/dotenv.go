package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/resio/internal/resource"
	"github.com/arloliu/resio/internal/types"
)

// DotenvResolver resolves locations using the dotenv: scheme.
//
//	dotenv:<location>#KEY
//
// The inner location is loaded through the requesting loader, so any form
// the loader understands works, e.g. dotenv:/etc/app/.env#DB_PASSWORD or
// dotenv:custom:prod.env#TOKEN.
type DotenvResolver struct{}

// NewDotenvResolver creates a new DotenvResolver.
func NewDotenvResolver() *DotenvResolver {
	return &DotenvResolver{}
}

// Resolve delegates the inner location to loader and selects KEY from it.
func (r *DotenvResolver) Resolve(ctx context.Context, location string, loader types.ResourceLoader) (types.Resource, bool, error) {
	if !strings.HasPrefix(location, "dotenv:") {
		return nil, false, nil
	}

	rest := strings.TrimPrefix(location, "dotenv:")
	idx := strings.LastIndexByte(rest, '#')
	if idx < 0 || idx == len(rest)-1 {
		return nil, false, errors.New("dotenv location missing key (fragment)")
	}

	inner, key := rest[:idx], rest[idx+1:]
	if inner == "" {
		return nil, false, errors.New("dotenv location missing file")
	}

	if loader == nil {
		return nil, false, errors.New("dotenv resolution requires a loader")
	}

	src, err := loader.Resource(ctx, inner)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve dotenv file %q: %w", inner, err)
	}

	return resource.NewDotenv(src, key), true, nil
}
