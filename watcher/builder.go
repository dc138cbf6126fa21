package watcher

import (
	"time"

	"github.com/arloliu/resio"
	"github.com/go-logr/logr"
)

// Builder provides a fluent API for constructing a Watcher.
type Builder struct {
	config watcherConfig
	loader *resio.Loader
}

// WithLoader sets the loader used to resolve and read the watched location.
// Defaults to resio.New().Build().
func (b *Builder) WithLoader(l *resio.Loader) *Builder {
	b.loader = l
	return b
}

// WithWatchInterval sets the polling interval.
// Every interval the location is re-resolved and its content compared.
//
// Default is 30 seconds.
func (b *Builder) WithWatchInterval(interval time.Duration) *Builder {
	b.config.watchInterval = interval
	return b
}

// WithDebounce sets the debounce interval for change events.
// Multiple rapid changes are coalesced into a single reload.
//
// Default is 100 milliseconds.
func (b *Builder) WithDebounce(interval time.Duration) *Builder {
	b.config.debounceInterval = interval
	return b
}

// WithLogger sets the logger for reload diagnostics.
func (b *Builder) WithLogger(l logr.Logger) *Builder {
	b.config.logger = l
	return b
}

// Build creates the Watcher with the configured options.
func (b *Builder) Build() (*Watcher, error) {
	if b.config.watchInterval <= 0 {
		return nil, &WatcherError{Message: "watch interval must be positive"}
	}
	if b.config.debounceInterval < 0 {
		return nil, &WatcherError{Message: "debounce interval must not be negative"}
	}

	loader := b.loader
	if loader == nil {
		l, err := resio.New().Build()
		if err != nil {
			return nil, err
		}
		loader = l
	}

	return &Watcher{
		loader: loader,
		config: b.config,
	}, nil
}
