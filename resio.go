// Package resio loads resources from location strings and lets applications
// plug in handling for their own location protocols.
//
// A location is a string such as "/etc/app/config.yaml",
// "https://example.com/app.json", "embed:static/index.html" or
// "custom:foo/bar". The Loader offers every location to its registered
// protocol resolvers in registration order; the first one that claims the
// location produces the resource. When none does, the default strategy
// handles plain paths, file: and http(s): URLs and embed: locations.
//
// Basic usage:
//
//	loader, err := resio.New().
//	    WithBaseDir("/srv/app").
//	    WithProtocolResolver(resio.NewPrefixResolver("custom:", nil, "/srv/custom")).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := loader.ReadAll(ctx, "custom:foo/bar")
//
// Custom protocols only need a ProtocolResolver:
//
//	loader.AddProtocolResolver(resio.ProtocolResolverFunc(
//	    func(ctx context.Context, location string, l resio.ResourceLoader) (resio.Resource, bool, error) {
//	        name, ok := strings.CutPrefix(location, "mem:")
//	        if !ok {
//	            return nil, false, nil // not ours
//	        }
//	        return resio.NewBytesResource(location, store[name]), true, nil
//	    }))
package resio

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/arloliu/resio/internal/loader"
	"github.com/arloliu/resio/internal/resource"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

// Loader resolves locations to resources.
// It is safe for concurrent use; resolvers may be added while other
// goroutines resolve.
type Loader struct {
	engine  *loader.Engine
	maxSize int64

	mu        sync.RWMutex
	resolvers []ProtocolResolver
}

var _ ResourceLoader = (*Loader)(nil)

// loaderConfig holds the configuration for the loader.
type loaderConfig struct {
	fs        afero.Fs
	baseDir   string
	embedded  fs.FS
	client    *http.Client
	maxSize   int64
	timeout   time.Duration
	logger    logr.Logger
	registry  prometheus.Registerer
	resolvers []ProtocolResolver
}

// New creates a new Loader Builder.
func New() *Builder {
	return &Builder{
		config: loaderConfig{
			maxSize: resource.DefaultMaxSize,
			logger:  logr.Discard(),
		},
	}
}

// Builder provides a fluent API for constructing a Loader.
type Builder struct {
	config loaderConfig
	err    error
}

// WithFilesystem sets the filesystem for path based resources.
// Defaults to DefaultFs.
func (b *Builder) WithFilesystem(fs afero.Fs) *Builder {
	b.config.fs = fs

	return b
}

// WithBaseDir sets the directory relative paths are resolved against.
// Defaults to the working directory.
func (b *Builder) WithBaseDir(dir string) *Builder {
	b.config.baseDir = dir

	return b
}

// WithEmbedded serves embed: locations from fsys, typically an embed.FS.
func (b *Builder) WithEmbedded(fsys fs.FS) *Builder {
	b.config.embedded = fsys

	return b
}

// WithHTTPClient sets the client used for http:// and https:// locations.
// Defaults to http.DefaultClient.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.config.client = c

	return b
}

// WithMaxSize limits the content size accepted by Loader.ReadAll.
// Default is 16MB.
func (b *Builder) WithMaxSize(n int64) *Builder {
	b.config.maxSize = n

	return b
}

// WithTimeout bounds every Resource call, including protocol resolvers.
// Default is 0 (no timeout).
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.timeout = timeout

	return b
}

// WithLogger sets the logger. Resolution traces are logged at V(1).
func (b *Builder) WithLogger(l logr.Logger) *Builder {
	b.config.logger = l

	return b
}

// WithMetrics registers resolution metrics with reg.
func (b *Builder) WithMetrics(reg prometheus.Registerer) *Builder {
	b.config.registry = reg

	return b
}

// WithProtocolResolver registers r, after any resolver registered before it.
func (b *Builder) WithProtocolResolver(r ProtocolResolver) *Builder {
	if r != nil {
		b.config.resolvers = append(b.config.resolvers, r)
	}

	return b
}

// Apply applies a configuration function to the builder.
// This enables reusable configuration bundles:
//
//	var prod = func(b *resio.Builder) {
//	    b.WithBaseDir("/srv/app").WithTimeout(10 * time.Second)
//	}
//	loader, _ := resio.New().Apply(prod).Build()
func (b *Builder) Apply(fn func(*Builder)) *Builder {
	fn(b)

	return b
}

// Build creates the Loader with the configured options.
// Returns an error if any prior builder step failed.
func (b *Builder) Build() (*Loader, error) {
	if b.err != nil {
		return nil, b.err
	}

	fsys := b.config.fs
	if fsys == nil {
		fsys = DefaultFs
	}

	client := b.config.client
	if client == nil {
		client = http.DefaultClient
	}

	engine := &loader.Engine{
		Fs:      fsys,
		BaseDir: b.config.baseDir,
		Client:  client,
		Timeout: b.config.timeout,
		Logger:  b.config.logger,
	}

	if b.config.embedded != nil {
		engine.Embedded = afero.FromIOFS{FS: b.config.embedded}
	}

	if b.config.registry != nil {
		m, err := loader.NewMetrics(b.config.registry)
		if err != nil {
			return nil, err
		}
		engine.Metrics = m
	}

	return &Loader{
		engine:    engine,
		maxSize:   b.config.maxSize,
		resolvers: append([]ProtocolResolver(nil), b.config.resolvers...),
	}, nil
}

// AddProtocolResolver registers r after the already registered resolvers.
// A nil resolver is ignored. Resolvers cannot be removed.
func (l *Loader) AddProtocolResolver(r ProtocolResolver) {
	if r == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.resolvers = append(l.resolvers, r)
}

// ProtocolResolvers returns the registered resolvers in registration order.
func (l *Loader) ProtocolResolvers() []ProtocolResolver {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]ProtocolResolver(nil), l.resolvers...)
}

// Resource resolves location to a resource handle.
//
// Registered protocol resolvers are tried in order; a resolver failure is
// returned as a *ResolutionError without trying the remaining ones. The
// returned handle may refer to a resource that does not exist.
func (l *Loader) Resource(ctx context.Context, location string) (Resource, error) {
	// Resolvers run without the lock so they can call back into the loader.
	return l.engine.Resolve(ctx, location, l.ProtocolResolvers(), l)
}

// ReadAll resolves location and reads its content, limited to the
// configured maximum size.
func (l *Loader) ReadAll(ctx context.Context, location string) ([]byte, error) {
	res, err := l.Resource(ctx, location)
	if err != nil {
		return nil, err
	}

	return resource.ReadAll(ctx, res, l.maxSize)
}

// Fs returns the filesystem for path based resources.
func (l *Loader) Fs() afero.Fs {
	return l.engine.Fs
}

// MaxSize returns the content size limit applied by ReadAll.
func (l *Loader) MaxSize() int64 {
	return l.maxSize
}
