// Package fill - browser.go provides the Chrome tab the executor fills.
package fill

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser wraps a chromedp browser context pointed at the application page.
// Requires Chrome/Chromium to be installed on the system. All operations run
// against the tab's own context; the tab lives until Close.
type Browser struct {
	tabCtx  context.Context
	cancels []context.CancelFunc
	verbose bool
}

// BrowserOptions configures the browser launch.
type BrowserOptions struct {
	// Headless runs without a visible window. Interactive verification
	// wants a visible browser so the user can inspect the filled form.
	Headless bool
	Verbose  bool
}

// NewBrowser launches a browser tab. Close must be called to release it.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	return &Browser{
		tabCtx:  tabCtx,
		cancels: []context.CancelFunc{cancelTab, cancelAlloc},
		verbose: opts.Verbose,
	}, nil
}

// Navigate loads url and waits for the page to settle enough to be filled.
func (b *Browser) Navigate(url string, timeout time.Duration) error {
	if b.verbose {
		log.Printf("[BROWSER] Navigating to: %s", url)
	}

	runCtx, cancel := context.WithTimeout(b.tabCtx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give JavaScript-rendered forms a moment to mount
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return fmt.Errorf("navigation failed for %s: %w", url, err)
	}
	return nil
}

// HTML returns the current rendered page HTML.
func (b *Browser) HTML() (string, error) {
	runCtx, cancel := context.WithTimeout(b.tabCtx, 30*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}

	if b.verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}
	return html, nil
}

// Location returns the tab's current URL.
func (b *Browser) Location() (string, error) {
	runCtx, cancel := context.WithTimeout(b.tabCtx, 10*time.Second)
	defer cancel()

	var url string
	if err := chromedp.Run(runCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Evaluate runs a script in the page and returns its string result.
func (b *Browser) Evaluate(_ context.Context, script string) (string, error) {
	runCtx, cancel := context.WithTimeout(b.tabCtx, 15*time.Second)
	defer cancel()

	var result string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &result)); err != nil {
		return "", err
	}
	return result, nil
}

// Close tears down the tab and the browser process.
func (b *Browser) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}
