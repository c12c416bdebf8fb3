// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/scholar-digest/internal/browser"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

const (
	defaultNavigationTimeout = 90 * time.Second
	defaultSelectorTimeout   = 10 * time.Second

	scrollPasses = 5
	scrollStep   = 1080
)

// Render settle delays, overridable in tests.
var (
	settleDelay = 8 * time.Second
	scrollDelay = 2 * time.Second
)

// Scraper extracts fully-assembled papers from one rendered feed page at a
// time. Papers are processed strictly sequentially: the page interactions
// are stateful and must never overlap.
type Scraper struct {
	cfg        types.ScrapeConfig
	fetcher    metadataFetcher
	images     imageStore
	strategies []Strategy
	w          io.Writer
}

// New creates a Scraper with the default strategy order: citation export
// first, link grouping as fallback. Progress is written to w.
func New(cfg types.ScrapeConfig, fetcher metadataFetcher, images imageStore, w io.Writer) *Scraper {
	if w == nil {
		w = io.Discard
	}
	return &Scraper{
		cfg:     cfg,
		fetcher: fetcher,
		images:  images,
		strategies: []Strategy{
			&bibtexStrategy{w: w},
			&linkDOMStrategy{w: w},
		},
		w: w,
	}
}

// ScrapePapers navigates page to url and returns every paper it can
// recover, in document order, capped at maxPapers when positive. Individual
// paper failures are logged and skipped; only page-level failures
// (navigation, script bridge breakdown across all strategies) return an
// error.
func (s *Scraper) ScrapePapers(ctx context.Context, page browser.Page, url string, maxPapers int) ([]*types.Paper, error) {
	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	selTimeout := s.cfg.SelectorTimeout
	if selTimeout <= 0 {
		selTimeout = defaultSelectorTimeout
	}

	fmt.Fprintf(s.w, "navigating to %s\n", url)
	if err := page.Navigate(url, navTimeout); err != nil {
		return nil, fmt.Errorf("loading feed page: %w", err)
	}

	// The feed renders client-side; wait for a paper affordance, falling
	// back to any outbound arXiv link, and continue regardless so a sparse
	// page still gets a chance.
	if err := page.WaitSelector(`button[aria-label="show abstract"]`, selTimeout); err != nil {
		fmt.Fprintf(s.w, "abstract controls not found, waiting for paper links\n")
		if err := page.WaitSelector(`a[href*="arxiv.org"]`, selTimeout); err != nil {
			fmt.Fprintf(s.w, "warning: no paper links found, continuing anyway\n")
		}
	}

	if err := sleep(ctx, settleDelay); err != nil {
		return nil, err
	}
	for i := 0; i < scrollPasses; i++ {
		if err := page.ScrollBy(scrollStep); err != nil {
			fmt.Fprintf(s.w, "warning: scrolling page: %v\n", err)
			break
		}
		if err := sleep(ctx, scrollDelay); err != nil {
			return nil, err
		}
	}

	records, err := s.extractRecords(page)
	if err != nil {
		return nil, err
	}
	if maxPapers > 0 && len(records) > maxPapers {
		records = records[:maxPapers]
	}
	fmt.Fprintf(s.w, "found %d papers\n", len(records))

	papers := make([]*types.Paper, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return papers, err
		}
		fmt.Fprintf(s.w, "processing paper %d/%d: %s\n", i+1, len(records), rec.Title)
		if paper := s.assemble(ctx, page, rec); paper != nil {
			papers = append(papers, paper)
		}
	}
	return papers, nil
}

// extractRecords tries each strategy in order until one yields records.
func (s *Scraper) extractRecords(page browser.Page) ([]types.RawPaperRecord, error) {
	var lastErr error
	for _, strat := range s.strategies {
		records, err := strat.Extract(page)
		if err != nil {
			fmt.Fprintf(s.w, "warning: %s extraction failed: %v\n", strat.Name(), err)
			lastErr = err
			continue
		}
		if len(records) > 0 {
			fmt.Fprintf(s.w, "extracted %d papers via %s strategy\n", len(records), strat.Name())
			return records, nil
		}
		fmt.Fprintf(s.w, "%s strategy found no papers\n", strat.Name())
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all extraction strategies failed: %w", lastErr)
	}
	return nil, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
