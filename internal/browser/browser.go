// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser wraps headless Chrome behind the small page-automation
// surface the extraction core needs. The core never manages browser
// lifecycle itself; it receives a Page and drives it.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Page is the automation handle consumed by the extraction core. Evaluate
// is a blocking remote-procedure call: the script runs in the page context,
// promises are awaited, and the JSON-serialized result is decoded into out.
// Callers must not overlap two calls against the same page.
type Page interface {
	// Navigate loads url and waits for the document body, bounded by timeout.
	Navigate(url string, timeout time.Duration) error

	// WaitSelector waits until an element matching selector is visible.
	WaitSelector(selector string, timeout time.Duration) error

	// Evaluate runs script in the page, awaiting any returned promise, and
	// decodes the result into out. Pass a nil out to discard the result.
	Evaluate(script string, out any) error

	// ScrollBy scrolls the window vertically by the given pixel count.
	ScrollBy(pixels int) error

	// Content returns the current HTML of the whole document.
	Content() (string, error)
}

// Options configures a launched browser.
type Options struct {
	// Headless runs the browser without a display (the default for scraping).
	Headless bool

	// UserAgent overrides the browser's User-Agent when non-empty.
	UserAgent string

	// EvaluateTimeout bounds each Evaluate/Content round trip. The scraping
	// scripts click through dialogs with their own settle waits, so this
	// must comfortably exceed the per-paper interaction time (default 120s).
	EvaluateTimeout time.Duration
}

// Browser owns one Chrome process. Pages created from it share the process
// but not page state; tear the whole browser down between independent runs.
type Browser struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	opts          Options
}

// Launch starts headless Chrome. A missing executable is reported as
// ErrBrowserNotFound so the caller can attempt a one-time install and retry.
func Launch(parent context.Context, opts Options) (*Browser, error) {
	if _, err := FindExecutable(); err != nil {
		return nil, err
	}

	if opts.EvaluateTimeout <= 0 {
		opts.EvaluateTimeout = 120 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Force the process to start now so launch failures surface here, not
	// on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		if isMissingExecutable(err) {
			return nil, fmt.Errorf("launching browser: %w", ErrBrowserNotFound)
		}
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &Browser{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		opts:          opts,
	}, nil
}

// NewPage opens a fresh tab. Close the returned page when the date's scrape
// is done; per-date isolation depends on it.
func (b *Browser) NewPage() *ChromePage {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	return &ChromePage{
		ctx:         tabCtx,
		cancel:      cancel,
		evalTimeout: b.opts.EvaluateTimeout,
	}
}

// Close shuts the browser process down.
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// ChromePage implements Page on a chromedp tab context.
type ChromePage struct {
	ctx         context.Context
	cancel      context.CancelFunc
	evalTimeout time.Duration
}

// Close releases the tab.
func (p *ChromePage) Close() {
	p.cancel()
}

func (p *ChromePage) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := p.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

// Navigate loads url and waits for the document body.
func (p *ChromePage) Navigate(url string, timeout time.Duration) error {
	if err := p.run(timeout, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// WaitSelector waits for a visible element matching selector.
func (p *ChromePage) WaitSelector(selector string, timeout time.Duration) error {
	if err := p.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return nil
}

// Evaluate runs script in the page context, awaiting promises.
func (p *ChromePage) Evaluate(script string, out any) error {
	return p.run(p.evalTimeout, chromedp.Evaluate(script, out, awaitPromise))
}

// ScrollBy scrolls the window vertically.
func (p *ChromePage) ScrollBy(pixels int) error {
	return p.Evaluate(fmt.Sprintf("window.scrollBy(0, %d); undefined", pixels), nil)
}

// Content returns the full document HTML.
func (p *ChromePage) Content() (string, error) {
	var html string
	if err := p.run(p.evalTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page content: %w", err)
	}
	return html, nil
}

func awaitPromise(params *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
	return params.WithAwaitPromise(true)
}

// isMissingExecutable recognizes launch errors caused by an absent Chrome
// binary rather than a broken one.
func isMissingExecutable(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "no such file or directory")
}
