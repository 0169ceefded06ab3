package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"
)

// ProgressFunc reports bytes fetched so far. Total is -1 when unknown.
type ProgressFunc func(loaded, total int64)

// Fetcher retrieves the raw bytes behind a source identifier.
type Fetcher interface {
	Fetch(ctx context.Context, src string, progress ProgressFunc) ([]byte, error)
}

// DefaultFetchTimeout bounds a single HTTP fetch.
const DefaultFetchTimeout = 30 * time.Second

// HTTPFetcher fetches sources over HTTP. Relative sources are resolved
// against BaseURL when one is set.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string
}

var _ Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string, progress ProgressFunc) ([]byte, error) {
	url := src
	if f.BaseURL != "" && !strings.Contains(src, "://") {
		url = strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(src, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", src, resp.Status)
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	reader := &progressReader{
		inner:  resp.Body,
		total:  resp.ContentLength,
		report: progress,
	}
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	return buf.Bytes(), nil
}

// progressReader counts bytes as they stream through and reports after each
// read, so observers see a monotonic loaded count.
type progressReader struct {
	inner  io.Reader
	loaded int64
	total  int64
	report ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		r.loaded += int64(n)
		if r.report != nil {
			r.report(r.loaded, r.total)
		}
	}
	return n, err
}

// FSFetcher serves sources from a file system root: a directory in dev, an
// embedded bundle in release builds.
type FSFetcher struct {
	FS fs.FS
}

var _ Fetcher = (*FSFetcher)(nil)

func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{FS: fsys}
}

func (f *FSFetcher) Fetch(ctx context.Context, src string, progress ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	data, err := fs.ReadFile(f.FS, src)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	if progress != nil {
		progress(int64(len(data)), int64(len(data)))
	}
	return data, nil
}

// RouterFetcher sends absolute http(s) sources to Remote and everything else
// to Local.
type RouterFetcher struct {
	Remote Fetcher
	Local  Fetcher
}

var _ Fetcher = (*RouterFetcher)(nil)

func NewRouterFetcher(remote, local Fetcher) *RouterFetcher {
	return &RouterFetcher{Remote: remote, Local: local}
}

func (f *RouterFetcher) Fetch(ctx context.Context, src string, progress ProgressFunc) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return f.Remote.Fetch(ctx, src, progress)
	}
	return f.Local.Fetch(ctx, src, progress)
}
