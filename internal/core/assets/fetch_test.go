package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherReportsProgress(t *testing.T) {
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var loadedSteps []int64
	var totals []int64
	fetcher := NewHTTPFetcher(0)
	data, err := fetcher.Fetch(context.Background(), srv.URL+"/big.bin", func(loaded, total int64) {
		loadedSteps = append(loadedSteps, loaded)
		totals = append(totals, total)
	})
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.NotEmpty(t, loadedSteps)
	for i := 1; i < len(loadedSteps); i++ {
		assert.Greater(t, loadedSteps[i], loadedSteps[i-1])
	}
	assert.EqualValues(t, len(payload), loadedSteps[len(loadedSteps)-1])
	for _, total := range totals {
		assert.EqualValues(t, len(payload), total)
	}
}

func TestHTTPFetcherRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(0)
	_, err := fetcher.Fetch(context.Background(), srv.URL+"/missing.png", nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unexpected status")
}

func TestHTTPFetcherResolvesAgainstBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(0)
	fetcher.BaseURL = srv.URL + "/"

	data, err := fetcher.Fetch(context.Background(), "/assets/tex.png", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, "/assets/tex.png", gotPath)

	// absolute sources bypass the base
	_, err = fetcher.Fetch(context.Background(), srv.URL+"/direct.png", nil)
	require.NoError(t, err)
	assert.Equal(t, "/direct.png", gotPath)
}

func TestFSFetcher(t *testing.T) {
	fsys := fstest.MapFS{
		"textures/a.png": {Data: []byte{1, 2, 3}},
	}
	fetcher := NewFSFetcher(fsys)

	var loaded, total int64
	data, err := fetcher.Fetch(context.Background(), "textures/a.png", func(l, t int64) { loaded, total = l, t })
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.EqualValues(t, 3, loaded)
	assert.EqualValues(t, 3, total)

	_, err = fetcher.Fetch(context.Background(), "textures/missing.png", nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fetcher.Fetch(ctx, "textures/a.png", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingFetcher struct {
	srcs []string
	data []byte
}

func (r *recordingFetcher) Fetch(_ context.Context, src string, _ ProgressFunc) ([]byte, error) {
	r.srcs = append(r.srcs, src)
	return r.data, nil
}

func TestRouterFetcherSplitsRemoteAndLocal(t *testing.T) {
	remote := &recordingFetcher{data: []byte("remote")}
	local := &recordingFetcher{data: []byte("local")}
	router := NewRouterFetcher(remote, local)

	data, err := router.Fetch(context.Background(), "https://cdn.example.com/a.png", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), data)

	data, err = router.Fetch(context.Background(), "textures/a.png", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), data)

	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, remote.srcs)
	assert.Equal(t, []string{"textures/a.png"}, local.srcs)
}
