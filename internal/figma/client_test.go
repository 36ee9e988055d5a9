package figma

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cft-yamuna/quiz-agent/internal/robustness"
)

type fakeFigma struct {
	server      *httptest.Server
	fileHits    atomic.Int32
	imageHits   atomic.Int32
	limitedLeft atomic.Int32
	status      int
}

func newFakeFigma(t *testing.T) *fakeFigma {
	t.Helper()
	fixture, err := os.ReadFile("testdata/quiz_file.json")
	require.NoError(t, err)

	f := &fakeFigma{status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/files/", func(w http.ResponseWriter, r *http.Request) {
		f.fileHits.Add(1)
		if r.Header.Get("X-Figma-Token") != "token" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if f.limitedLeft.Load() > 0 {
			f.limitedLeft.Add(-1)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if f.status != http.StatusOK {
			http.Error(w, "not found", f.status)
			return
		}
		w.Write(fixture)
	})
	mux.HandleFunc("/v1/images/", func(w http.ResponseWriter, r *http.Request) {
		f.imageHits.Add(1)
		fmt.Fprintf(w, `{"err":null,"images":{"1:1":"%[1]s/png/home","1:2":"%[1]s/png/question","1:3":null}}`, f.server.URL)
	})
	mux.HandleFunc("/png/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\x89PNG" + r.URL.Path))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeFigma) client(t *testing.T, cacheDir string) (*Client, *[]time.Duration) {
	t.Helper()
	c := NewClient(Options{
		Token:    "token",
		BaseURL:  f.server.URL + "/v1",
		CacheDir: cacheDir,
	})
	var waits []time.Duration
	c.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestFileIsCachedOnDiskAndInMemory(t *testing.T) {
	fake := newFakeFigma(t)
	dir := t.TempDir()
	ref := Ref{FileKey: "AbC123"}

	c, _ := fake.client(t, dir)
	first, err := c.FileJSON(context.Background(), ref)
	require.NoError(t, err)
	second, err := c.FileJSON(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.fileHits.Load())

	// a fresh client within the TTL reads the disk cache
	c2, _ := fake.client(t, dir)
	third, err := c2.FileJSON(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.fileHits.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)

	// identical input flattens to identical output
	f1, err := c.File(context.Background(), ref)
	require.NoError(t, err)
	f2, err := c2.File(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, Render(Flatten(f1), RenderOptions{}), Render(Flatten(f2), RenderOptions{}))

	assert.FileExists(t, filepath.Join(dir, "AbC123_file.json"))
}

func TestStaleCacheRefetches(t *testing.T) {
	fake := newFakeFigma(t)
	dir := t.TempDir()
	ref := Ref{FileKey: "AbC123", NodeID: "1:2"}

	c, _ := fake.client(t, dir)
	_, err := c.FileJSON(context.Background(), ref)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "AbC123_1-2_file.json"))

	c2, _ := fake.client(t, dir)
	c2.now = func() time.Time { return time.Now().Add(DefaultCacheTTL + time.Second) }
	_, err = c2.FileJSON(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.fileHits.Load())
}

func TestRateLimitRetry(t *testing.T) {
	fake := newFakeFigma(t)
	fake.limitedLeft.Store(2)

	c, waits := fake.client(t, t.TempDir())
	_, err := c.File(context.Background(), Ref{FileKey: "AbC123"})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, *waits)
}

func TestRateLimitGivesUp(t *testing.T) {
	fake := newFakeFigma(t)
	fake.limitedLeft.Store(10)

	c, waits := fake.client(t, t.TempDir())
	_, err := c.File(context.Background(), Ref{FileKey: "AbC123"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, *waits, DefaultMaxRetries)
	assert.Equal(t, int32(DefaultMaxRetries), fake.fileHits.Load())
}

func TestAPIError(t *testing.T) {
	fake := newFakeFigma(t)
	fake.status = http.StatusNotFound

	c, _ := fake.client(t, t.TempDir())
	_, err := c.File(context.Background(), Ref{FileKey: "Missing"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestServerErrorsOpenCircuit(t *testing.T) {
	fake := newFakeFigma(t)
	fake.status = http.StatusBadGateway

	c := NewClient(Options{
		Token:            "token",
		BaseURL:          fake.server.URL + "/v1",
		CacheDir:         t.TempDir(),
		BreakerThreshold: 2,
		BreakerReset:     time.Hour,
	})
	for i := 0; i < 2; i++ {
		_, err := c.File(context.Background(), Ref{FileKey: "AbC123"})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
	}

	_, err := c.File(context.Background(), Ref{FileKey: "AbC123"})
	assert.ErrorIs(t, err, robustness.ErrCircuitOpen)
	assert.Equal(t, int32(2), fake.fileHits.Load())
}

func TestClientErrorsKeepCircuitClosed(t *testing.T) {
	fake := newFakeFigma(t)
	fake.status = http.StatusNotFound

	c := NewClient(Options{
		Token:            "token",
		BaseURL:          fake.server.URL + "/v1",
		CacheDir:         t.TempDir(),
		BreakerThreshold: 1,
	})
	for i := 0; i < 3; i++ {
		_, err := c.File(context.Background(), Ref{FileKey: "Missing"})
		assert.NotErrorIs(t, err, robustness.ErrCircuitOpen)
	}
	assert.Equal(t, int32(3), fake.fileHits.Load())
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(Options{})
	_, err := c.File(context.Background(), Ref{FileKey: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExportImagesUsesCache(t *testing.T) {
	fake := newFakeFigma(t)
	dir := t.TempDir()
	c, _ := fake.client(t, dir)
	ref := Ref{FileKey: "AbC123"}

	paths, err := c.ExportImages(context.Background(), ref, []string{"1:1", "1:2", "1:3"}, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"1:1": filepath.Join(dir, "AbC123_1-1_1x.png"),
		"1:2": filepath.Join(dir, "AbC123_1-2_1x.png"),
	}, paths)

	_, err = c.ExportImages(context.Background(), ref, []string{"1:1", "1:2"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.imageHits.Load())
}

func TestExportImagesCacheIsPerFile(t *testing.T) {
	fake := newFakeFigma(t)
	dir := t.TempDir()
	c, _ := fake.client(t, dir)

	first, err := c.ExportImages(context.Background(), Ref{FileKey: "AbC123"}, []string{"1:1"}, 1)
	require.NoError(t, err)
	// the same node id in another design is not served from the first one's cache
	second, err := c.ExportImages(context.Background(), Ref{FileKey: "XyZ789"}, []string{"1:1"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.imageHits.Load())
	assert.NotEqual(t, first["1:1"], second["1:1"])

	// a different scale is a different render
	_, err = c.ExportImages(context.Background(), Ref{FileKey: "AbC123"}, []string{"1:1"}, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), fake.imageHits.Load())
}

func TestFetchDesignWritesManifest(t *testing.T) {
	fake := newFakeFigma(t)
	dir := t.TempDir()
	c, _ := fake.client(t, dir)

	design, err := c.FetchDesign(context.Background(), Ref{FileKey: "AbC123"}, FetchOptions{})
	require.NoError(t, err)

	assert.Contains(t, design.Report, "# Figma Design: Space Quiz")
	assert.Contains(t, design.Report, "## Frame Screenshots (sent as images for visual reference)")
	assert.Contains(t, design.Report, "  - Home (Quiz): ")
	require.Len(t, design.Frames, 2)

	manifest, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, design.Frames, manifest)
}

func TestFetchDesignTruncates(t *testing.T) {
	fake := newFakeFigma(t)
	c, _ := fake.client(t, t.TempDir())

	design, err := c.FetchDesign(context.Background(), Ref{FileKey: "AbC123"}, FetchOptions{MaxChars: 100})
	require.NoError(t, err)
	assert.Len(t, []rune(design.Report), 100+len(truncationNote))
	assert.Contains(t, design.Report, "# Figma Design: Space Quiz")
}
