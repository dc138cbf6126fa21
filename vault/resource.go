package vault

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/resio/internal/types"
)

// secretResource is a single field of a Vault secret.
// Every Open reads the secret again, so rotated values are picked up.
type secretResource struct {
	resolver *Resolver
	path     string
	field    string
}

func (s *secretResource) Location() string {
	return "vault:///" + s.path + "#" + s.field
}

func (s *secretResource) Description() string {
	return fmt.Sprintf("vault secret [%s] field [%s]", s.path, s.field)
}

func (s *secretResource) Exists(ctx context.Context) bool {
	_, err := s.resolver.readField(ctx, s.path, s.field)

	return err == nil
}

func (s *secretResource) Open(ctx context.Context) (io.ReadCloser, error) {
	val, err := s.resolver.readField(ctx, s.path, s.field)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(strings.NewReader(val)), nil
}

func (s *secretResource) Stat(ctx context.Context) (types.Info, error) {
	val, err := s.resolver.readField(ctx, s.path, s.field)
	if err != nil {
		return types.Info{}, err
	}

	return types.Info{Location: s.Location(), Size: int64(len(val))}, nil
}

// Relative returns another field of the same secret when rel is "#field".
func (s *secretResource) Relative(rel string) (types.Resource, error) {
	field, ok := strings.CutPrefix(rel, "#")
	if !ok || field == "" {
		return nil, types.ErrRelativeUnsupported
	}

	return &secretResource{resolver: s.resolver, path: s.path, field: field}, nil
}
