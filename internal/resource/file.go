// Package resource provides the Resource implementations used by the loader
// and the bundled protocol resolvers.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/arloliu/resio/internal/types"
	"github.com/spf13/afero"
)

// ErrOutsideRoot is returned when a rooted name escapes its root directory.
var ErrOutsideRoot = errors.New("path escapes resource root")

// FileResource is a resource backed by a file on an afero filesystem.
type FileResource struct {
	fs     afero.Fs
	root   string // base directory of rooted resources
	rooted bool
	slash  bool   // io/fs backed: paths stay slash separated on every OS
	prefix string // location prefix, e.g. "file://" or "custom:"
	name   string // slash separated name, relative to root when rooted
}

// NewFile creates a file resource for p on fs.
// Absolute paths are identified as file:///abs/path, relative ones as file:rel/path.
func NewFile(fs afero.Fs, p string) *FileResource {
	name := filepath.ToSlash(filepath.Clean(p))
	prefix := "file:"
	if path.IsAbs(name) {
		prefix = "file://"
	}

	return &FileResource{fs: fs, prefix: prefix, name: name}
}

// NewRooted creates a file resource for name below root on fs, identified by
// prefix+name. The name is cleaned; a name that escapes root is rejected.
func NewRooted(fs afero.Fs, root, prefix, name string) (*FileResource, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	return &FileResource{fs: fs, root: root, rooted: true, prefix: prefix, name: cleaned}, nil
}

// NewEmbedded creates a resource for name on fs, a filesystem adapted from an
// io/fs.FS, identified by prefix+name. io/fs names are always slash
// separated and unrooted, so the OS separator is never used.
func NewEmbedded(fs afero.Fs, prefix, name string) (*FileResource, error) {
	r, err := NewRooted(fs, ".", prefix, name)
	if err != nil {
		return nil, err
	}
	r.slash = true

	return r, nil
}

// CleanName normalizes a slash separated name relative to a root.
// Leading slashes are dropped; ".." segments that leave the root are rejected.
func CleanName(name string) (string, error) {
	cleaned := path.Clean(strings.TrimLeft(name, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%q: %w", name, ErrOutsideRoot)
	}

	return cleaned, nil
}

// Location returns prefix+name, e.g. "file:///etc/hosts" or "custom:foo/bar".
func (r *FileResource) Location() string {
	return r.prefix + r.name
}

// Name returns the cleaned name of the resource without its prefix.
func (r *FileResource) Name() string {
	return r.name
}

// Path returns the path of the backing file on the filesystem.
func (r *FileResource) Path() string {
	if r.slash {
		return path.Join(r.root, r.name)
	}

	if !r.rooted {
		return filepath.FromSlash(r.name)
	}

	return filepath.Join(r.root, filepath.FromSlash(r.name))
}

// Fs returns the backing filesystem.
func (r *FileResource) Fs() afero.Fs {
	return r.fs
}

// Description returns a human readable description.
func (r *FileResource) Description() string {
	if strings.HasPrefix(r.prefix, "file:") {
		return fmt.Sprintf("file [%s]", r.Path())
	}

	return fmt.Sprintf("%s [%s]", r.Location(), r.Path())
}

// Exists reports whether the backing file exists and is not a directory,
// matching what Open accepts.
func (r *FileResource) Exists(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	fi, err := r.fs.Stat(r.Path())

	return err == nil && !fi.IsDir()
}

// Open opens the backing file. Directories cannot be opened.
func (r *FileResource) Open(ctx context.Context) (io.ReadCloser, error) {
	// Check context before reading
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := r.fs.Open(r.Path())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.Description(), err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("stat %s: %w", r.Description(), err)
	}
	if fi.IsDir() {
		_ = f.Close()

		return nil, fmt.Errorf("%s is a directory", r.Description())
	}

	return f, nil
}

// Stat returns the size and modification time of the backing file.
func (r *FileResource) Stat(ctx context.Context) (types.Info, error) {
	if err := ctx.Err(); err != nil {
		return types.Info{}, err
	}

	fi, err := r.fs.Stat(r.Path())
	if err != nil {
		return types.Info{}, fmt.Errorf("stat %s: %w", r.Description(), err)
	}

	return types.Info{Location: r.Location(), Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Relative returns the resource at rel, resolved against this resource's directory.
func (r *FileResource) Relative(rel string) (types.Resource, error) {
	if !r.rooted {
		if filepath.IsAbs(rel) {
			return NewFile(r.fs, rel), nil
		}

		return NewFile(r.fs, filepath.Join(filepath.Dir(r.Path()), rel)), nil
	}

	res, err := NewRooted(r.fs, r.root, r.prefix, path.Join(path.Dir(r.name), strings.TrimLeft(rel, "/")))
	if err != nil {
		return nil, err
	}
	res.slash = r.slash

	return res, nil
}
