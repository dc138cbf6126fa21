package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arloliu/resio"
	"github.com/go-logr/logr/testr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, updates <-chan Update) Update {
	t.Helper()

	select {
	case u, ok := <-updates:
		require.True(t, ok, "updates channel closed")
		return u
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func memResolver(value *atomic.Value) resio.ProtocolResolver {
	return resio.ProtocolResolverFunc(func(_ context.Context, location string, _ resio.ResourceLoader) (resio.Resource, bool, error) {
		if !strings.HasPrefix(location, "mem:") {
			return nil, false, nil
		}

		return resio.NewBytesResource(location, []byte(value.Load().(string))), true, nil
	})
}

func TestWatcher_Build(t *testing.T) {
	t.Run("default loader", func(t *testing.T) {
		w, err := New().Build()
		require.NoError(t, err)
		require.NotNil(t, w.loader)
	})

	t.Run("invalid interval", func(t *testing.T) {
		_, err := New().WithWatchInterval(0).Build()
		require.Error(t, err)
	})

	t.Run("invalid debounce", func(t *testing.T) {
		_, err := New().WithDebounce(-time.Second).Build()
		require.Error(t, err)
	})
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("delivers initial content", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/data/app.yaml", []byte("v1"), 0o644))
		loader, err := resio.New().WithFilesystem(fs).Build()
		require.NoError(t, err)

		w, err := New().WithLoader(loader).Build()
		require.NoError(t, err)
		defer w.Stop()

		updates, err := w.Watch(context.Background(), "/data/app.yaml")
		require.NoError(t, err)

		u := receive(t, updates)
		assert.Equal(t, "/data/app.yaml", u.Location)
		assert.Equal(t, "v1", string(u.Content))
	})

	t.Run("fails for missing resource", func(t *testing.T) {
		loader, err := resio.New().WithFilesystem(afero.NewMemMapFs()).Build()
		require.NoError(t, err)

		w, err := New().WithLoader(loader).Build()
		require.NoError(t, err)

		_, err = w.Watch(context.Background(), "/missing")
		var werr *WatcherError
		require.ErrorAs(t, err, &werr)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("rejects second watch", func(t *testing.T) {
		var value atomic.Value
		value.Store("a")
		loader, err := resio.New().WithProtocolResolver(memResolver(&value)).Build()
		require.NoError(t, err)

		w, err := New().WithLoader(loader).Build()
		require.NoError(t, err)
		defer w.Stop()

		_, err = w.Watch(context.Background(), "mem:x")
		require.NoError(t, err)
		_, err = w.Watch(context.Background(), "mem:x")
		assert.EqualError(t, err, "watcher is already running")
	})
}

func TestWatcher_Polling(t *testing.T) {
	var value atomic.Value
	value.Store("v1")

	loader, err := resio.New().WithProtocolResolver(memResolver(&value)).Build()
	require.NoError(t, err)

	w, err := New().
		WithLoader(loader).
		WithWatchInterval(20 * time.Millisecond).
		WithDebounce(time.Millisecond).
		WithLogger(testr.New(t)).
		Build()
	require.NoError(t, err)
	defer w.Stop()

	updates, err := w.Watch(context.Background(), "mem:config")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(receive(t, updates).Content))

	value.Store("v2")
	assert.Equal(t, "v2", string(receive(t, updates).Content))

	// Unchanged content is not re-emitted.
	select {
	case u := <-updates:
		t.Fatalf("unexpected update %q", u.Content)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_FileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: initial"), 0o644))

	loader, err := resio.New().WithFilesystem(afero.NewOsFs()).Build()
	require.NoError(t, err)

	w, err := New().
		WithLoader(loader).
		WithWatchInterval(time.Hour). // rely on fsnotify only
		WithDebounce(10 * time.Millisecond).
		Build()
	require.NoError(t, err)
	defer w.Stop()

	updates, err := w.Watch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "host: initial", string(receive(t, updates).Content))

	tmp := filepath.Join(dir, "app.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("host: changed"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	assert.Equal(t, "host: changed", string(receive(t, updates).Content))
}

func TestWatcher_Stop(t *testing.T) {
	var value atomic.Value
	value.Store("a")
	loader, err := resio.New().WithProtocolResolver(memResolver(&value)).Build()
	require.NoError(t, err)

	w, err := New().WithLoader(loader).Build()
	require.NoError(t, err)

	updates, err := w.Watch(context.Background(), "mem:x")
	require.NoError(t, err)
	receive(t, updates)

	w.Stop()
	w.Stop() // idempotent

	_, ok := <-updates
	assert.False(t, ok)

	// A stopped watcher can watch again.
	updates, err = w.Watch(context.Background(), "mem:x")
	require.NoError(t, err)
	receive(t, updates)
	w.Stop()
}

func TestWatcher_ContextCancel(t *testing.T) {
	var value atomic.Value
	value.Store("a")
	loader, err := resio.New().WithProtocolResolver(memResolver(&value)).Build()
	require.NoError(t, err)

	w, err := New().WithLoader(loader).Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := w.Watch(ctx, "mem:x")
	require.NoError(t, err)
	receive(t, updates)

	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("updates channel not closed after cancel")
	}

	w.Stop()
}
