// Package watcher provides change notification for resources resolved by a
// resio.Loader.
//
// Basic usage:
//
//	w, err := watcher.New().
//	    WithLoader(loader).
//	    WithWatchInterval(30 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
//	updates, err := w.Watch(ctx, "custom:app.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for u := range updates {
//	    app.Reload(u.Content)
//	}
//
// # Watch Mechanisms
//
// The watcher uses two mechanisms for detecting changes:
//
// 1. File system watching (fsnotify) - for file resources on the OS filesystem
// 2. Periodic polling - for everything else (HTTP, vault, env, in-memory)
//
// Every check re-resolves the location through the loader, so resolvers
// that return snapshots are observed too.
//
// # Thread Safety
//
// The Watcher is safe for concurrent use. A Watcher follows one location at
// a time; the updates channel should be consumed by a single goroutine.
package watcher

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/arloliu/resio"
	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

// Update carries the content of a watched resource.
type Update struct {
	Location string
	Content  []byte
}

// Watcher monitors a resource and emits updates when its content changes.
type Watcher struct {
	loader *resio.Loader
	config watcherConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// watch is the state of one Watch call, owned by its watch loop.
type watch struct {
	location string
	last     []byte
	fs       *fsnotify.Watcher // nil when only polling
	target   string            // cleaned OS path matched against fsnotify events
	updates  chan Update
	stop     chan struct{}
	done     chan struct{}
}

// watcherConfig holds internal configuration for the watcher.
type watcherConfig struct {
	watchInterval    time.Duration
	debounceInterval time.Duration
	logger           logr.Logger
}

// defaultWatchInterval is the default polling interval.
const defaultWatchInterval = 30 * time.Second

// defaultDebounceInterval prevents rapid successive reloads.
const defaultDebounceInterval = 100 * time.Millisecond

// New creates a new watcher Builder.
func New() *Builder {
	return &Builder{
		config: watcherConfig{
			watchInterval:    defaultWatchInterval,
			debounceInterval: defaultDebounceInterval,
			logger:           logr.Discard(),
		},
	}
}

// Watch starts watching location.
// The current content is read before Watch returns and is delivered as the
// first Update; later updates are sent only when the content changes.
//
// The returned channel is closed when Stop is called or ctx is done.
func (w *Watcher) Watch(ctx context.Context, location string) (<-chan Update, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil, &WatcherError{Message: "watcher is already running"}
	}

	res, err := w.loader.Resource(ctx, location)
	if err != nil {
		return nil, &WatcherError{Message: "failed to resolve " + location, Err: err}
	}

	content, err := resio.ReadResource(ctx, res, w.loader.MaxSize())
	if err != nil {
		return nil, &WatcherError{Message: "failed to read " + location, Err: err}
	}

	wt := &watch{location: location, last: content}
	if path, ok := osPath(res); ok {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, &WatcherError{Message: "failed to create file watcher", Err: err}
		}
		// Watch the directory so atomic replacements (rename over) are seen.
		if err := fw.Add(filepath.Dir(path)); err != nil {
			_ = fw.Close()

			return nil, &WatcherError{Message: "failed to watch " + path, Err: err}
		}
		wt.fs = fw
		wt.target = filepath.Clean(path)
	}

	wt.updates = make(chan Update, 1)
	wt.stop = make(chan struct{})
	wt.done = make(chan struct{})
	wt.updates <- Update{Location: location, Content: content}

	w.running = true
	w.stopChan = wt.stop
	w.doneChan = wt.done

	go w.watchLoop(ctx, wt)

	return wt.updates, nil
}

// Stop gracefully stops the watcher.
// It closes the updates channel and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop, done := w.stopChan, w.doneChan
	w.mu.Unlock()

	close(stop)
	<-done // Wait for watchLoop to finish
}

// watchLoop is the main watch loop that monitors for changes.
func (w *Watcher) watchLoop(ctx context.Context, wt *watch) {
	defer close(wt.done)
	defer close(wt.updates)

	var fsChan <-chan fsnotify.Event
	if wt.fs != nil {
		defer wt.fs.Close()
		fsChan = wt.fs.Events
	}

	log := w.config.logger.WithValues("location", wt.location)

	pollTicker := time.NewTicker(w.config.watchInterval)
	defer pollTicker.Stop()

	// Debounce timer to prevent rapid successive reloads
	var debounceTimer *time.Timer
	var debounceChan <-chan time.Time

	reload := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.NewTimer(w.config.debounceInterval)
		debounceChan = debounceTimer.C
	}

	for {
		select {
		case <-wt.stop:
			return

		case <-ctx.Done():
			w.mu.Lock()
			if w.doneChan == wt.done {
				w.running = false
			}
			w.mu.Unlock()

			return

		case event, ok := <-fsChan:
			if !ok {
				fsChan = nil
				continue
			}
			if filepath.Clean(event.Name) != wt.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				reload()
			}

		case <-pollTicker.C:
			reload()

		case <-debounceChan:
			debounceChan = nil
			content, changed, err := w.reloadIfChanged(ctx, wt)
			if err != nil {
				// Keep watching; the resource may come back.
				log.Error(err, "reload failed")
				continue
			}
			if !changed {
				continue
			}

			log.V(1).Info("resource changed", "size", len(content))
			select {
			case wt.updates <- Update{Location: wt.location, Content: content}:
			case <-wt.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// reloadIfChanged re-resolves the location and reports whether its content changed.
func (w *Watcher) reloadIfChanged(ctx context.Context, wt *watch) ([]byte, bool, error) {
	content, err := w.loader.ReadAll(ctx, wt.location)
	if err != nil {
		return nil, false, err
	}

	if bytes.Equal(content, wt.last) {
		return nil, false, nil
	}
	wt.last = content

	return content, true, nil
}

// osPath returns the OS path of file resources that fsnotify can observe.
func osPath(res resio.Resource) (string, bool) {
	fr, ok := res.(*resio.FileResource)
	if !ok {
		return "", false
	}

	if _, isOs := fr.Fs().(*afero.OsFs); !isOs {
		return "", false
	}

	abs, err := filepath.Abs(fr.Path())
	if err != nil {
		return "", false
	}

	return abs, true
}

// WatcherError represents a watcher-specific error.
type WatcherError struct {
	Message string
	Err     error
}

func (e *WatcherError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WatcherError) Unwrap() error {
	return e.Err
}
