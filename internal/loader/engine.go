// Package loader implements resource resolution: the protocol resolver chain
// followed by the default location strategy.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/arloliu/resio/internal/resource"
	"github.com/arloliu/resio/internal/types"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

// EmbedPrefix is the location prefix for resources on the embedded filesystem.
const EmbedPrefix = "embed:"

// Engine is the internal resolution engine.
// It runs registered protocol resolvers in order and falls back to the
// default strategy for locations no resolver claims.
type Engine struct {
	Fs       afero.Fs
	BaseDir  string   // Directory for relative paths; "" means the working directory
	Embedded afero.Fs // Backing filesystem for embed: locations, may be nil
	Client   *http.Client
	Timeout  time.Duration
	Logger   logr.Logger
	Metrics  *Metrics
}

// Resolve returns the resource for location.
// loader is handed to every resolver so it can delegate sub-resolution.
func (e *Engine) Resolve(
	ctx context.Context,
	location string,
	resolvers []types.ProtocolResolver,
	loader types.ResourceLoader,
) (types.Resource, error) {
	if location == "" {
		return nil, types.ErrEmptyLocation
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	log := e.Logger.WithValues("location", location)

	for _, r := range resolvers {
		res, ok, err := r.Resolve(ctx, location, loader)
		if err != nil {
			e.Metrics.observe(OutcomeFailure, start)
			log.V(1).Info("protocol resolver failed", "resolver", resolverName(r), "error", err)

			return nil, &types.ResolutionError{Location: location, Resolver: resolverName(r), Err: err}
		}

		if !ok {
			continue
		}

		if res == nil {
			e.Metrics.observe(OutcomeFailure, start)

			return nil, &types.ResolutionError{
				Location: location,
				Resolver: resolverName(r),
				Err:      errors.New("resolver reported a match without a resource"),
			}
		}

		e.Metrics.observe(OutcomeResolver, start)
		log.V(1).Info("resolved by protocol resolver", "resolver", resolverName(r), "resource", res.Location())

		return res, nil
	}

	res, err := e.defaultResource(location)
	if err != nil {
		e.Metrics.observe(OutcomeError, start)

		return nil, &types.ResolutionError{Location: location, Err: err}
	}

	e.Metrics.observe(OutcomeDefault, start)
	log.V(1).Info("resolved by default strategy", "resource", res.Location())

	return res, nil
}

// defaultResource applies the built-in location rules.
func (e *Engine) defaultResource(location string) (types.Resource, error) {
	if strings.HasPrefix(location, "/") {
		return resource.NewFile(e.Fs, location), nil
	}

	if rest, ok := strings.CutPrefix(location, EmbedPrefix); ok {
		if e.Embedded == nil {
			return nil, types.ErrNoEmbeddedFS
		}

		return resource.NewEmbedded(e.Embedded, EmbedPrefix, rest)
	}

	u, err := url.Parse(location)
	if err == nil {
		switch u.Scheme {
		case "file":
			return resource.NewFile(e.Fs, e.filePath(u)), nil
		case "http", "https":
			return resource.NewURL(location, e.Client)
		}
	}

	// Not a URL we understand: treat as a path relative to the base directory.
	return resource.NewFile(e.Fs, e.relative(location)), nil
}

// filePath extracts the filesystem path from a file: URL.
// Supports file:///abs/path, file:rel/path and file://rel/path.
func (e *Engine) filePath(u *url.URL) string {
	if u.Opaque != "" {
		return e.relative(u.Opaque)
	}

	p := u.Path
	if u.Host != "" && u.Host != "localhost" {
		// file://relative/path format - Host contains the first segment
		return e.relative(path.Join(u.Host, u.Path))
	}

	return filepath.FromSlash(p)
}

func (e *Engine) relative(p string) string {
	if filepath.IsAbs(p) || e.BaseDir == "" {
		return p
	}

	return filepath.Join(e.BaseDir, p)
}

func resolverName(r types.ProtocolResolver) string {
	return fmt.Sprintf("%T", r)
}
