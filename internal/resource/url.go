package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/arloliu/resio/internal/types"
)

// URLResource is a resource fetched over http:// or https://.
type URLResource struct {
	u      *url.URL
	client *http.Client
}

// NewURL creates a URL resource for raw. If client is nil, http.DefaultClient is used.
func NewURL(raw string, client *http.Client) (*URLResource, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme for URL resource: %s", u.Scheme)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &URLResource{u: u, client: client}, nil
}

// Location returns the URL string.
func (r *URLResource) Location() string { return r.u.String() }

// URL returns a copy of the resource URL.
func (r *URLResource) URL() *url.URL {
	u := *r.u

	return &u
}

func (r *URLResource) Description() string {
	return fmt.Sprintf("URL [%s]", r.u.Redacted())
}

func (r *URLResource) do(ctx context.Context, method string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	_ = resp.Body.Close()
	if method == http.MethodHead &&
		(resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		// Some servers only answer GET; the body is discarded by the caller.
		return r.do(ctx, http.MethodGet)
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("%s: %w", r.Description(), os.ErrNotExist)
	}

	return nil, fmt.Errorf("%s: http request failed with status: %d", r.Description(), resp.StatusCode)
}

// Exists issues a HEAD request and reports whether it returned 200 OK.
// Servers rejecting HEAD with 405 or 501 are asked with GET instead.
func (r *URLResource) Exists(ctx context.Context) bool {
	resp, err := r.do(ctx, http.MethodHead)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	return true
}

// Open issues a GET request and returns the response body.
func (r *URLResource) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.do(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Stat issues a HEAD request (GET when HEAD is rejected) and reads
// Content-Length and Last-Modified.
func (r *URLResource) Stat(ctx context.Context) (types.Info, error) {
	resp, err := r.do(ctx, http.MethodHead)
	if err != nil {
		return types.Info{}, err
	}
	defer resp.Body.Close()

	info := types.Info{Location: r.Location()}
	if resp.ContentLength > 0 {
		info.Size = resp.ContentLength
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			info.ModTime = t
		}
	}

	return info, nil
}

// Relative resolves rel as a URL reference against this resource's URL.
func (r *URLResource) Relative(rel string) (types.Resource, error) {
	ref, err := url.Parse(rel)
	if err != nil {
		return nil, fmt.Errorf("invalid relative URL %q: %w", rel, err)
	}

	return &URLResource{u: r.u.ResolveReference(ref), client: r.client}, nil
}
