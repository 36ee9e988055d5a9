package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/cft-yamuna/quiz-agent/internal/fileutil"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/robustness"
)

const (
	// DefaultBaseURL is the Figma REST API root.
	DefaultBaseURL = "https://api.figma.com/v1"
	// DefaultCacheTTL is how long cached documents and images stay fresh.
	DefaultCacheTTL = 300 * time.Second
	// DefaultMaxRetries bounds attempts on HTTP 429.
	DefaultMaxRetries = 3
	// FramesManifest lists the frames exported by the last design fetch.
	FramesManifest = "_current_frames.json"

	// DefaultBreakerThreshold is how many failed requests in a row open
	// the circuit.
	DefaultBreakerThreshold = 5
	// DefaultBreakerReset is how long an open circuit fails fast.
	DefaultBreakerReset = 60 * time.Second

	rateLimitBackoff = 30 * time.Second
	memoryCacheSize  = 16
	maxResponseBytes = 64 << 20
)

var (
	// ErrRateLimited is returned when every attempt was answered with 429.
	ErrRateLimited = errors.New("figma API rate limit exceeded after retries, try again in a few minutes")
	// ErrNotConfigured is returned when no access token is set.
	ErrNotConfigured = errors.New("FIGMA_ACCESS_TOKEN and FIGMA_URL must be set in .env")
)

// APIError is a non-2xx answer from the Figma API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("figma api: HTTP %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	Token             string
	BaseURL           string
	CacheDir          string
	CacheTTL          time.Duration
	MaxRetries        int
	RequestsPerMinute int
	BreakerThreshold  int
	BreakerReset      time.Duration
	HTTPClient        *http.Client
}

// Client fetches Figma documents and frame images. Responses are cached on
// disk with a freshness window and kept in an in-process LRU.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
	cacheDir   string
	ttl        time.Duration
	maxRetries int

	limiter *rate.Limiter
	breaker *robustness.CircuitBreaker
	docs    *expirable.LRU[string, []byte]

	// wait sleeps between 429 retries; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.BreakerThreshold <= 0 {
		opts.BreakerThreshold = DefaultBreakerThreshold
	}
	if opts.BreakerReset <= 0 {
		opts.BreakerReset = DefaultBreakerReset
	}
	breaker := robustness.NewCircuitBreaker("figma", opts.BreakerThreshold, opts.BreakerReset)
	breaker.IsFailure = isOutage

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
	}

	return &Client{
		httpClient: opts.HTTPClient,
		token:      opts.Token,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		cacheDir:   opts.CacheDir,
		ttl:        opts.CacheTTL,
		maxRetries: opts.MaxRetries,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    breaker,
		docs:       expirable.NewLRU[string, []byte](memoryCacheSize, nil, opts.CacheTTL),
		wait:       sleepContext,
		now:        time.Now,
	}
}

// Configured reports whether the client has a token.
func (c *Client) Configured() bool {
	return c.token != ""
}

// CacheDir returns the directory holding cached documents and images.
func (c *Client) CacheDir() string {
	return c.cacheDir
}

// FileJSON returns the raw document JSON, fetching only when neither cache
// holds a fresh copy. When ref has a NodeID only that subtree is requested.
func (c *Client) FileJSON(ctx context.Context, ref Ref) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	key := ref.CacheKey()
	if data, ok := c.docs.Get(key); ok {
		return data, nil
	}

	cachePath := filepath.Join(c.cacheDir, key+"_file.json")
	if data, ok := c.readFresh(cachePath); ok {
		c.docs.Add(key, data)
		return data, nil
	}

	q := url.Values{}
	if ref.NodeID != "" {
		q.Set("ids", ref.NodeID)
	}
	data, err := c.get(ctx, c.baseURL+"/files/"+url.PathEscape(ref.FileKey), q)
	if err != nil {
		return nil, err
	}

	if c.cacheDir != "" {
		if err := fileutil.AtomicWrite(cachePath, data, 0644); err != nil {
			logging.Warn("failed to cache figma file", "path", cachePath, "error", err)
		}
	}
	c.docs.Add(key, data)
	return data, nil
}

// File returns the decoded document.
func (c *Client) File(ctx context.Context, ref Ref) (*File, error) {
	data, err := c.FileJSON(ctx, ref)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse figma file: %w", err)
	}
	return &f, nil
}

// Frames returns the screens of the referenced document.
func (c *Client) Frames(ctx context.Context, ref Ref) ([]Frame, error) {
	f, err := c.File(ctx, ref)
	if err != nil {
		return nil, err
	}
	return CollectFrames(f), nil
}

// ExportImages renders frames to PNG and returns local paths by node id.
// Fresh cached images are reused; failed downloads are skipped.
func (c *Client) ExportImages(ctx context.Context, ref Ref, ids []string, scale int) (map[string]string, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if scale <= 0 {
		scale = 1
	}

	paths := make(map[string]string, len(ids))
	var missing []string
	for _, id := range ids {
		p := c.imagePath(ref, id, scale)
		if _, ok := c.freshAt(p); ok {
			paths[id] = p
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return paths, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(missing, ","))
	q.Set("scale", strconv.Itoa(scale))
	q.Set("format", "png")
	data, err := c.get(ctx, c.baseURL+"/images/"+url.PathEscape(ref.FileKey), q)
	if err != nil {
		return paths, err
	}

	var resp struct {
		Err    *string           `json:"err"`
		Images map[string]string `json:"images"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return paths, fmt.Errorf("failed to parse image export: %w", err)
	}
	if resp.Err != nil && *resp.Err != "" {
		return paths, fmt.Errorf("figma image export: %s", *resp.Err)
	}

	for _, id := range missing {
		src := resp.Images[id]
		if src == "" {
			continue
		}
		if err := c.download(ctx, src, c.imagePath(ref, id, scale)); err != nil {
			logging.Warn("failed to download figma frame", "node", id, "error", err)
			continue
		}
		paths[id] = c.imagePath(ref, id, scale)
	}
	return paths, nil
}

// imagePath is the cache file of one frame render. Node ids repeat across
// files, so the file key and scale are part of the name.
func (c *Client) imagePath(ref Ref, id string, scale int) string {
	name := fmt.Sprintf("%s_%s_%dx.png", ref.FileKey, strings.ReplaceAll(id, ":", "-"), scale)
	return filepath.Join(c.cacheDir, name)
}

// get performs an authenticated GET through the circuit breaker.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	var body []byte
	err := c.breaker.Execute(ctx, func() error {
		var err error
		body, err = c.fetch(ctx, endpoint, q)
		return err
	})
	if errors.Is(err, robustness.ErrCircuitOpen) {
		return nil, fmt.Errorf("figma API unavailable after repeated failures: %w", err)
	}
	return body, err
}

// isOutage reports errors that say the API is unhealthy rather than that
// the request was wrong.
func isOutage(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return true
}

// fetch performs the GET, retrying on 429 with a growing wait.
func (c *Client) fetch(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Figma-Token", c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("figma request failed: %w", err)
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := rateLimitBackoff * time.Duration(attempt+1)
			logging.Warn("figma rate limited", "wait", wait, "attempt", attempt+1, "max", c.maxRetries)
			if err := c.wait(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read figma response: %w", readErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return body, nil
	}
	return nil, ErrRateLimited
}

func (c *Client) download(ctx context.Context, src, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	return fileutil.AtomicWrite(dst, data, 0644)
}

// readFresh returns the cached file content when younger than the TTL.
func (c *Client) readFresh(path string) ([]byte, bool) {
	if _, ok := c.freshAt(path); !ok {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Client) freshAt(path string) (time.Time, bool) {
	if c.cacheDir == "" {
		return time.Time{}, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), c.now().Sub(info.ModTime()) < c.ttl
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
