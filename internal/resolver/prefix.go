package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/arloliu/resio/internal/resource"
	"github.com/arloliu/resio/internal/types"
	"github.com/spf13/afero"
)

// PrefixResolver maps locations starting with a fixed prefix onto a directory.
//
//	custom:foo/bar -> <root>/foo/bar
//
// A prefix without a name ("custom:") is not claimed. A name escaping the root
// directory is a resolution failure.
type PrefixResolver struct {
	prefix string
	fs     afero.Fs
	root   string
}

// NewPrefixResolver creates a PrefixResolver for prefix rooted at root.
// If fs is nil, the loader filesystem is used at resolution time.
func NewPrefixResolver(prefix string, fs afero.Fs, root string) *PrefixResolver {
	return &PrefixResolver{prefix: prefix, fs: fs, root: root}
}

// Prefix returns the location prefix handled by the resolver.
func (r *PrefixResolver) Prefix() string {
	return r.prefix
}

// Resolve builds a file resource for locations carrying the resolver prefix.
func (r *PrefixResolver) Resolve(_ context.Context, location string, loader types.ResourceLoader) (types.Resource, bool, error) {
	if r.prefix == "" || !strings.HasPrefix(location, r.prefix) {
		return nil, false, nil
	}

	name := location[len(r.prefix):]
	if name == "" {
		return nil, false, nil
	}

	fs := r.fs
	if fs == nil && loader != nil {
		fs = loader.Fs()
	}
	if fs == nil {
		return nil, false, fmt.Errorf("no filesystem available for prefix %q", r.prefix)
	}

	res, err := resource.NewRooted(fs, r.root, r.prefix, name)
	if err != nil {
		return nil, false, err
	}

	return res, true, nil
}
