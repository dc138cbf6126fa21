package resource

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arloliu/resio/internal/types"
	"github.com/joho/godotenv"
)

// DotenvResource exposes a single key of a dotenv file.
// The file is read through the source resource on every access.
type DotenvResource struct {
	source types.Resource
	key    string
}

// NewDotenv creates a resource for key inside the dotenv content of source.
func NewDotenv(source types.Resource, key string) *DotenvResource {
	return &DotenvResource{source: source, key: key}
}

// Location returns "dotenv:<source location>#KEY".
func (r *DotenvResource) Location() string {
	return "dotenv:" + r.source.Location() + "#" + r.key
}

func (r *DotenvResource) Description() string {
	return fmt.Sprintf("dotenv key [%s] in %s", r.key, r.source.Description())
}

func (r *DotenvResource) value(ctx context.Context) (string, error) {
	rc, err := r.source.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	env, err := godotenv.Parse(rc)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", r.source.Description(), err)
	}

	val, ok := env[r.key]
	if !ok {
		return "", fmt.Errorf("%s: %w", r.Description(), os.ErrNotExist)
	}

	return val, nil
}

func (r *DotenvResource) Exists(ctx context.Context) bool {
	_, err := r.value(ctx)

	return err == nil
}

func (r *DotenvResource) Open(ctx context.Context) (io.ReadCloser, error) {
	val, err := r.value(ctx)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(strings.NewReader(val)), nil
}

// Stat reports the value size and the modification time of the dotenv file.
func (r *DotenvResource) Stat(ctx context.Context) (types.Info, error) {
	val, err := r.value(ctx)
	if err != nil {
		return types.Info{}, err
	}

	info := types.Info{Location: r.Location(), Size: int64(len(val))}
	if src, err := r.source.Stat(ctx); err == nil {
		info.ModTime = src.ModTime
	}

	return info, nil
}

func (r *DotenvResource) Relative(string) (types.Resource, error) {
	return nil, types.ErrRelativeUnsupported
}
