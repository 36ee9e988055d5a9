package screenshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/cft-yamuna/quiz-agent/internal/logging"
)

// Target is a page to capture and where to save it.
type Target struct {
	Route string
	URL   string
	Path  string
}

// Capturer renders pages to PNG files. Failures for single targets are
// returned alongside the captures that succeeded.
type Capturer interface {
	Capture(ctx context.Context, targets []Target) ([]Capture, []error)
}

// ChromeCapturer captures pages with a headless Chrome instance.
type ChromeCapturer struct {
	Width      int
	Height     int
	Settle     time.Duration
	NavTimeout time.Duration
}

// NewChromeCapturer returns a capturer with a 1440x900 viewport.
func NewChromeCapturer() *ChromeCapturer {
	return &ChromeCapturer{
		Width:      1440,
		Height:     900,
		Settle:     1500 * time.Millisecond,
		NavTimeout: 15 * time.Second,
	}
}

// Capture starts one browser for all targets and takes a full-page
// screenshot of each after the settle delay.
func (c *ChromeCapturer) Capture(ctx context.Context, targets []Target) ([]Capture, []error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(c.Width, c.Height),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return nil, []error{fmt.Errorf("browser error: %w", err)}
	}

	var (
		shots []Capture
		errs  []error
	)
	for _, t := range targets {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := c.captureOne(browserCtx, t); err != nil {
			logging.Warn("screenshot failed", "route", t.Route, "error", err)
			errs = append(errs, fmt.Errorf("could not screenshot %s: %w", t.Route, err))
			continue
		}
		logging.Debug("screenshot captured", "route", t.Route, "path", t.Path)
		shots = append(shots, Capture{Route: t.Route, Path: t.Path})
	}
	return shots, errs
}

func (c *ChromeCapturer) captureOne(browserCtx context.Context, t Target) error {
	timeout := c.NavTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(browserCtx, timeout+c.Settle)
	defer cancel()

	var buf []byte
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(c.Width), int64(c.Height)),
		chromedp.Navigate(t.URL),
		chromedp.Sleep(c.Settle),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0755); err != nil {
		return err
	}
	return os.WriteFile(t.Path, buf, 0644)
}
