package visualization

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"saebequity/domain/core"
	"saebequity/internal"
)

const (
	snapshotWidth  = 1280
	snapshotHeight = 900
	// renderSettle gives the chart scripts time to draw after load
	renderSettle = 750 * time.Millisecond
)

// Snapshotter captures PNG screenshots of rendered HTML pages with a headless browser
type Snapshotter struct {
	execPath string
	timeout  time.Duration
	logger   *internal.Logger
}

// NewSnapshotter creates a snapshotter. An empty execPath lets chromedp find the browser.
func NewSnapshotter(execPath string, timeout time.Duration, logger *internal.Logger) *Snapshotter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Snapshotter{execPath: execPath, timeout: timeout, logger: logger}
}

// Capture screenshots every page into dir as <page>.png. A browser that cannot be
// started yields an error wrapping core.ErrBackendUnavailable.
func (s *Snapshotter) Capture(ctx context.Context, pages []string, dir string) ([]string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.WindowSize(snapshotWidth, snapshotHeight),
	)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		browserCtx, cancelTimeout = context.WithTimeout(browserCtx, s.timeout)
		defer cancelTimeout()
	}

	startTime := time.Now()
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, core.NewBackendUnavailableError("chromedp", err)
	}
	s.logger.Debug("[Snapshotter] Browser started in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	paths := make([]string, 0, len(pages))
	for _, page := range pages {
		abs, err := filepath.Abs(page)
		if err != nil {
			return paths, err
		}

		var buf []byte
		err = chromedp.Run(browserCtx,
			chromedp.Navigate("file://"+filepath.ToSlash(abs)),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Sleep(renderSettle),
			chromedp.FullScreenshot(&buf, 100),
		)
		if err != nil {
			return paths, fmt.Errorf("failed to capture %s: %w", page, err)
		}

		name := strings.TrimSuffix(filepath.Base(page), filepath.Ext(page)) + ".png"
		out := filepath.Join(dir, name)
		if err := os.WriteFile(out, buf, 0o644); err != nil {
			return paths, err
		}
		s.logger.Debug("[Snapshotter] Captured %s (%d bytes)", out, len(buf))
		paths = append(paths, out)
	}
	return paths, nil
}
