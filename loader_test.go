package resio_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/arloliu/resio"
	"github.com/go-logr/logr/testr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemLoader(t *testing.T) (*resio.Loader, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/srv/custom/foo/bar", []byte("custom content"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/srv/app/app.yaml", []byte("name: app"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/etc/hosts", []byte("127.0.0.1 localhost"), 0o644))

	l, err := resio.New().
		WithFilesystem(fs).
		WithBaseDir("/srv/app").
		WithLogger(testr.New(t)).
		WithProtocolResolver(resio.NewPrefixResolver("custom:", nil, "/srv/custom")).
		Build()
	require.NoError(t, err)

	return l, fs
}

func TestLoader_CustomPrefixScenario(t *testing.T) {
	l, _ := newMemLoader(t)
	r := resio.NewPrefixResolver("custom:", nil, "/srv/custom")
	ctx := context.Background()

	t.Run("matching location is resolved", func(t *testing.T) {
		res, ok, err := r.Resolve(ctx, "custom:foo/bar", l)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "custom:foo/bar", res.Location())
		assert.Equal(t, "foo/bar", res.(*resio.FileResource).Name())
	})

	t.Run("other protocol is not claimed", func(t *testing.T) {
		res, ok, err := r.Resolve(ctx, "file:/etc/hosts", l)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, res)
	})

	t.Run("empty location is not claimed", func(t *testing.T) {
		_, ok, err := r.Resolve(ctx, "", l)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty suffix is not claimed", func(t *testing.T) {
		_, ok, err := r.Resolve(ctx, "custom:", l)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non matching locations for any loader", func(t *testing.T) {
		other, err := resio.New().WithFilesystem(afero.NewMemMapFs()).Build()
		require.NoError(t, err)
		for _, loader := range []resio.ResourceLoader{l, other, nil} {
			_, ok, err := r.Resolve(ctx, "http://example.com/x", loader)
			require.NoError(t, err)
			assert.False(t, ok)
		}
	})

	t.Run("round trip yields equivalent handles", func(t *testing.T) {
		a, err := l.Resource(ctx, "custom:foo/bar")
		require.NoError(t, err)
		b, err := l.Resource(ctx, "custom:foo/bar")
		require.NoError(t, err)
		assert.True(t, resio.Equal(a, b))

		data, err := resio.ReadResource(ctx, a, 0)
		require.NoError(t, err)
		assert.Equal(t, "custom content", string(data))
	})
}

func TestLoader_Resource(t *testing.T) {
	l, _ := newMemLoader(t)
	ctx := context.Background()

	t.Run("resolver match", func(t *testing.T) {
		data, err := l.ReadAll(ctx, "custom:foo/bar")
		require.NoError(t, err)
		assert.Equal(t, "custom content", string(data))
	})

	t.Run("absolute path", func(t *testing.T) {
		data, err := l.ReadAll(ctx, "/etc/hosts")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1 localhost", string(data))
	})

	t.Run("file URL", func(t *testing.T) {
		data, err := l.ReadAll(ctx, "file:///etc/hosts")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1 localhost", string(data))
	})

	t.Run("relative path uses base dir", func(t *testing.T) {
		data, err := l.ReadAll(ctx, "app.yaml")
		require.NoError(t, err)
		assert.Equal(t, "name: app", string(data))
	})

	t.Run("empty location", func(t *testing.T) {
		_, err := l.Resource(ctx, "")
		assert.ErrorIs(t, err, resio.ErrEmptyLocation)
	})

	t.Run("missing resource", func(t *testing.T) {
		res, err := l.Resource(ctx, "custom:nope")
		require.NoError(t, err)
		assert.False(t, res.Exists(ctx))
		_, err = l.ReadAll(ctx, "custom:nope")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("resolution failure", func(t *testing.T) {
		_, err := l.Resource(ctx, "custom:../../etc/hosts")
		require.Error(t, err)

		var re *resio.ResolutionError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "custom:../../etc/hosts", re.Location)
		assert.Contains(t, re.Resolver, "PrefixResolver")
	})
}

func TestLoader_RegistrationOrder(t *testing.T) {
	l, err := resio.New().WithFilesystem(afero.NewMemMapFs()).Build()
	require.NoError(t, err)

	mk := func(name string) resio.ProtocolResolver {
		return resio.ProtocolResolverFunc(func(_ context.Context, location string, _ resio.ResourceLoader) (resio.Resource, bool, error) {
			if !strings.HasPrefix(location, "mem:") {
				return nil, false, nil
			}

			return resio.NewBytesResource(location, []byte(name)), true, nil
		})
	}

	l.AddProtocolResolver(mk("first"))
	l.AddProtocolResolver(nil)
	l.AddProtocolResolver(mk("second"))
	assert.Len(t, l.ProtocolResolvers(), 2)

	data, err := l.ReadAll(context.Background(), "mem:x")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLoader_ResolveDoesNotChangeRegistry(t *testing.T) {
	l, _ := newMemLoader(t)
	before := l.ProtocolResolvers()

	for _, loc := range []string{"custom:foo/bar", "/etc/hosts", "custom:", "", "custom:../x"} {
		_, _ = l.Resource(context.Background(), loc)
	}

	assert.Equal(t, before, l.ProtocolResolvers())
}

func TestLoader_ReentrantResolution(t *testing.T) {
	l, fs := newMemLoader(t)
	require.NoError(t, afero.WriteFile(fs, "/srv/custom/alias", []byte("custom:foo/bar"), 0o644))

	// alias:NAME reads custom:NAME and resolves the location stored in it.
	l.AddProtocolResolver(resio.ProtocolResolverFunc(
		func(ctx context.Context, location string, loader resio.ResourceLoader) (resio.Resource, bool, error) {
			name, ok := strings.CutPrefix(location, "alias:")
			if !ok {
				return nil, false, nil
			}

			ref, err := loader.Resource(ctx, "custom:"+name)
			if err != nil {
				return nil, false, err
			}
			target, err := resio.ReadResource(ctx, ref, 0)
			if err != nil {
				return nil, false, err
			}

			res, err := loader.Resource(ctx, string(target))
			if err != nil {
				return nil, false, err
			}

			return res, true, nil
		}))

	data, err := l.ReadAll(context.Background(), "alias:alias")
	require.NoError(t, err)
	assert.Equal(t, "custom content", string(data))
}

func TestLoader_Concurrent(t *testing.T) {
	l, fs := newMemLoader(t)
	for i := range 20 {
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("/srv/custom/f%d", i), []byte(fmt.Sprint(i)), 0o644))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			data, err := l.ReadAll(context.Background(), fmt.Sprintf("custom:f%d", i))
			if err != nil {
				errs <- err

				return
			}
			if string(data) != fmt.Sprint(i) {
				errs <- fmt.Errorf("custom:f%d: got %q", i, data)
			}
		}(i)
		go func() {
			defer wg.Done()
			l.AddProtocolResolver(resio.NewEnvResolver())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, l.ProtocolResolvers(), 21)
}

func TestLoader_Embedded(t *testing.T) {
	l, err := resio.New().
		WithFilesystem(afero.NewMemMapFs()).
		WithEmbedded(fstest.MapFS{"templates/index.html": {Data: []byte("<html></html>")}}).
		Build()
	require.NoError(t, err)

	data, err := l.ReadAll(context.Background(), "embed:templates/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	noEmbed, err := resio.New().Build()
	require.NoError(t, err)
	_, err = noEmbed.Resource(context.Background(), "embed:x")
	assert.ErrorIs(t, err, resio.ErrNoEmbeddedFS)
}

func TestLoader_HTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big" {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))

			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer ts.Close()

	l, err := resio.New().WithHTTPClient(ts.Client()).WithMaxSize(32).Build()
	require.NoError(t, err)

	data, err := l.ReadAll(context.Background(), ts.URL+"/doc")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	_, err = l.ReadAll(context.Background(), ts.URL+"/big")
	assert.ErrorIs(t, err, resio.ErrTooLarge)
}

func TestLoader_Timeout(t *testing.T) {
	l, err := resio.New().
		WithTimeout(20*time.Millisecond).
		WithProtocolResolver(resio.ProtocolResolverFunc(
			func(ctx context.Context, _ string, _ resio.ResourceLoader) (resio.Resource, bool, error) {
				<-ctx.Done()

				return nil, false, ctx.Err()
			})).
		Build()
	require.NoError(t, err)

	_, err = l.Resource(context.Background(), "slow:x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoader_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	l, err := resio.New().WithFilesystem(afero.NewMemMapFs()).WithMetrics(reg).Build()
	require.NoError(t, err)

	_, err = l.Resource(context.Background(), "/a")
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "resio_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEqual(t *testing.T) {
	a := resio.NewBytesResource("mem:a", []byte("1"))
	b := resio.NewBytesResource("mem:a", []byte("2"))
	c := resio.NewBytesResource("mem:c", nil)

	assert.True(t, resio.Equal(a, b))
	assert.False(t, resio.Equal(a, c))
	assert.False(t, resio.Equal(a, nil))
	assert.True(t, resio.Equal(nil, nil))
}

func TestBuilder_Apply(t *testing.T) {
	bundle := func(b *resio.Builder) {
		b.WithFilesystem(afero.NewMemMapFs()).WithMaxSize(10)
	}

	l, err := resio.New().Apply(bundle).Build()
	require.NoError(t, err)
	assert.Equal(t, int64(10), l.MaxSize())
}

func TestResolutionError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := &resio.ResolutionError{Location: "x:y", Resolver: "*my.Resolver", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to resolve 'x:y' (resolver *my.Resolver): cause", err.Error())
}

func TestSetDefaultFs(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/etc/resio.yaml", []byte("baseDir: /srv\n"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/srv/app.yaml", []byte("name: app"), 0o644))

	resio.SetDefaultFs(mem)
	defer resio.ResetDefaultFs()

	cfg, err := resio.LoadConfig("/etc/resio.yaml")
	require.NoError(t, err)

	l, err := resio.FromConfig(cfg).Build()
	require.NoError(t, err)
	assert.Same(t, mem, l.Fs())

	data, err := l.ReadAll(context.Background(), "app.yaml")
	require.NoError(t, err)
	assert.Equal(t, "name: app", string(data))

	resio.ResetDefaultFs()
	other, err := resio.New().Build()
	require.NoError(t, err)
	assert.NotSame(t, mem, other.Fs())
	assert.Same(t, mem, l.Fs(), "built loaders keep their filesystem")
}

func TestLoader_UnboundedMaxSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.txt", []byte("hello"), 0o644))

	l, err := resio.New().WithFilesystem(fs).WithMaxSize(math.MaxInt64).Build()
	require.NoError(t, err)

	data, err := l.ReadAll(context.Background(), "/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
