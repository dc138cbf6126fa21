package resource

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arloliu/resio/internal/types"
)

// EnvResource exposes the value of an environment variable.
// The variable is read on every access, never cached.
type EnvResource struct {
	name   string
	lookup func(string) (string, bool)
}

// NewEnv creates a resource for the environment variable name.
// If lookup is nil, os.LookupEnv is used.
func NewEnv(name string, lookup func(string) (string, bool)) *EnvResource {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	return &EnvResource{name: name, lookup: lookup}
}

// Location returns "env:NAME".
func (r *EnvResource) Location() string { return "env:" + r.name }

func (r *EnvResource) Description() string {
	return fmt.Sprintf("environment variable [%s]", r.name)
}

// Exists reports whether the variable is set, even to an empty value.
func (r *EnvResource) Exists(context.Context) bool {
	_, ok := r.lookup(r.name)

	return ok
}

func (r *EnvResource) value() (string, error) {
	val, ok := r.lookup(r.name)
	if !ok {
		return "", fmt.Errorf("%s: %w", r.Description(), os.ErrNotExist)
	}

	return val, nil
}

func (r *EnvResource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, err := r.value()
	if err != nil {
		return nil, err
	}

	return io.NopCloser(strings.NewReader(val)), nil
}

func (r *EnvResource) Stat(context.Context) (types.Info, error) {
	val, err := r.value()
	if err != nil {
		return types.Info{}, err
	}

	return types.Info{Location: r.Location(), Size: int64(len(val))}, nil
}

func (r *EnvResource) Relative(string) (types.Resource, error) {
	return nil, types.ErrRelativeUnsupported
}
