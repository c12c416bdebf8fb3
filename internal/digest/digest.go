// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest runs the end-to-end workflow: scrape the feed for each
// requested day, filter and sort the papers, enrich them with the LLM
// stage, post them to Slack, and clean up cached images.
package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/scholar-digest/internal/browser"
	"github.com/pdiddy/scholar-digest/internal/dateutil"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

// Scraper extracts papers from one rendered feed page.
type Scraper interface {
	ScrapePapers(ctx context.Context, page browser.Page, url string, maxPapers int) ([]*types.Paper, error)
}

// Enricher fills in translations and summaries on a paper in place.
type Enricher interface {
	ProcessPaper(ctx context.Context, paper *types.Paper)
}

// Poster publishes one paper to the digest channel.
type Poster interface {
	PostPaper(ctx context.Context, paper *types.Paper) error
}

// PostedStore remembers which papers were already posted.
type PostedStore interface {
	Posted(paper *types.Paper) (bool, error)
	MarkPosted(paper *types.Paper) error
}

// ImageCleaner removes cached teaser figures after posting.
type ImageCleaner interface {
	Cleanup(papers []*types.Paper)
}

// page is a browser tab the pipeline can discard.
type page interface {
	browser.Page
	Close()
}

// session is one live browser process serving pages.
type session interface {
	NewPage() page
	Close()
}

type chromeSession struct {
	b *browser.Browser
}

func (s *chromeSession) NewPage() page { return s.b.NewPage() }
func (s *chromeSession) Close()        { s.b.Close() }

// Pipeline wires the stages of one digest run.
type Pipeline struct {
	cfg     types.Config
	scraper Scraper
	enrich  Enricher
	poster  Poster
	store   PostedStore
	images  ImageCleaner
	w       io.Writer

	// launch is swapped out by tests to avoid a real browser.
	launch func(ctx context.Context) (session, error)
}

// New builds a Pipeline. store may be nil, which disables the
// already-posted skip; the other stages are required.
func New(cfg types.Config, scraper Scraper, enrich Enricher, poster Poster, store PostedStore, images ImageCleaner, w io.Writer) *Pipeline {
	if w == nil {
		w = io.Discard
	}
	p := &Pipeline{
		cfg:     cfg,
		scraper: scraper,
		enrich:  enrich,
		poster:  poster,
		store:   store,
		images:  images,
		w:       w,
	}
	p.launch = func(ctx context.Context) (session, error) {
		b, err := browser.Launch(ctx, browser.Options{
			Headless:  cfg.Scrape.Headless,
			UserAgent: cfg.Scrape.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		return &chromeSession{b: b}, nil
	}
	return p
}

// Run executes one full pass. A nil dateRange scrapes the feed URL as-is;
// otherwise each day in the range gets its own page load, with per-day
// failures logged and skipped. maxPapers caps each page (0 = no cap).
func (p *Pipeline) Run(ctx context.Context, dateRange *dateutil.DateRange, maxPapers int) error {
	urls, err := p.feedURLs(dateRange)
	if err != nil {
		return err
	}

	sess, err := p.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var papers []*types.Paper
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(p.w, "fetching %s\n", u.label)

		pg := sess.NewPage()
		got, err := p.scraper.ScrapePapers(ctx, pg, u.url, maxPapers)
		pg.Close()
		if err != nil {
			fmt.Fprintf(p.w, "warning: scraping %s: %v\n", u.label, err)
			continue
		}
		fmt.Fprintf(p.w, "found %d papers for %s\n", len(got), u.label)
		papers = append(papers, got...)
	}

	if len(papers) == 0 {
		fmt.Fprintf(p.w, "no papers found\n")
		return nil
	}

	papers = filterPapers(papers, p.cfg.Filter, p.w)
	if len(papers) == 0 {
		fmt.Fprintf(p.w, "no papers remaining after filtering\n")
		return nil
	}

	sortPapers(papers, p.cfg.Sort)

	posted := 0
	for i, paper := range papers {
		if err := ctx.Err(); err != nil {
			return err
		}

		if p.store != nil {
			already, err := p.store.Posted(paper)
			if err != nil {
				fmt.Fprintf(p.w, "warning: checking posted papers: %v\n", err)
			} else if already {
				fmt.Fprintf(p.w, "skipping already-posted paper: %s\n", paper.Title)
				continue
			}
		}

		fmt.Fprintf(p.w, "paper %d/%d: %s\n", i+1, len(papers), paper.Title)

		p.enrich.ProcessPaper(ctx, paper)

		if err := p.poster.PostPaper(ctx, paper); err != nil {
			fmt.Fprintf(p.w, "warning: posting %s: %v\n", paper.Title, err)
			continue
		}
		if p.store != nil {
			if err := p.store.MarkPosted(paper); err != nil {
				fmt.Fprintf(p.w, "warning: recording posted paper: %v\n", err)
			}
		}
		posted++
	}

	p.images.Cleanup(papers)
	fmt.Fprintf(p.w, "workflow completed: %d/%d papers posted\n", posted, len(papers))
	return nil
}

type feedTarget struct {
	url   string
	label string
}

func (p *Pipeline) feedURLs(dateRange *dateutil.DateRange) ([]feedTarget, error) {
	base := p.cfg.Scrape.FeedURL
	if dateRange == nil {
		return []feedTarget{{url: base, label: "feed"}}, nil
	}

	var targets []feedTarget
	for _, day := range dateRange.Dates() {
		u, err := dateutil.BuildFeedURL(base, day)
		if err != nil {
			return nil, fmt.Errorf("building feed URL: %w", err)
		}
		targets = append(targets, feedTarget{url: u, label: day.Format("2006-01-02")})
	}
	return targets, nil
}

// openSession launches the browser. When no executable is found and an
// install command is configured, the command runs once and the launch is
// retried.
func (p *Pipeline) openSession(ctx context.Context) (session, error) {
	sess, err := p.launch(ctx)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, browser.ErrBrowserNotFound) || p.cfg.Scrape.BrowserInstallCmd == "" {
		return nil, err
	}

	fmt.Fprintf(p.w, "browser not found, attempting install\n")
	if installErr := browser.Install(p.cfg.Scrape.BrowserInstallCmd, p.w); installErr != nil {
		return nil, fmt.Errorf("installing browser: %w", installErr)
	}
	return p.launch(ctx)
}

// submittedDate parses the formats papers carry after metadata merging.
func submittedDate(paper *types.Paper) time.Time {
	if paper.SubmittedDate == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006"} {
		if t, err := time.Parse(layout, paper.SubmittedDate); err == nil {
			return t
		}
	}
	return time.Time{}
}
