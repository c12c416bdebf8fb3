// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/scholar-digest/internal/browser"
	"github.com/pdiddy/scholar-digest/internal/dateutil"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

type fakePage struct {
	closed bool
}

func (p *fakePage) Navigate(string, time.Duration) error     { return nil }
func (p *fakePage) WaitSelector(string, time.Duration) error { return nil }
func (p *fakePage) Evaluate(string, any) error               { return nil }
func (p *fakePage) ScrollBy(int) error                       { return nil }
func (p *fakePage) Content() (string, error)                 { return "", nil }
func (p *fakePage) Close()                                   { p.closed = true }

type fakeSession struct {
	pages  []*fakePage
	closed bool
}

func (s *fakeSession) NewPage() page {
	pg := &fakePage{}
	s.pages = append(s.pages, pg)
	return pg
}

func (s *fakeSession) Close() { s.closed = true }

type fakeScraper struct {
	byURL   map[string][]*types.Paper
	failURL string
	urls    []string
}

func (f *fakeScraper) ScrapePapers(ctx context.Context, pg browser.Page, url string, maxPapers int) ([]*types.Paper, error) {
	f.urls = append(f.urls, url)
	if url == f.failURL {
		return nil, context.DeadlineExceeded
	}
	return f.byURL[url], nil
}

type fakeEnricher struct {
	titles []string
}

func (f *fakeEnricher) ProcessPaper(ctx context.Context, paper *types.Paper) {
	f.titles = append(f.titles, paper.Title)
	paper.TranslatedAbstract = "enriched"
}

type fakePoster struct {
	titles    []string
	failTitle string
}

func (f *fakePoster) PostPaper(ctx context.Context, paper *types.Paper) error {
	if paper.Title == f.failTitle {
		return context.DeadlineExceeded
	}
	f.titles = append(f.titles, paper.Title)
	return nil
}

type fakeStore struct {
	posted map[string]bool
	marked []string
}

func (f *fakeStore) Posted(paper *types.Paper) (bool, error) {
	return f.posted[paper.Key()], nil
}

func (f *fakeStore) MarkPosted(paper *types.Paper) error {
	f.marked = append(f.marked, paper.Key())
	return nil
}

type fakeCleaner struct {
	papers []*types.Paper
}

func (f *fakeCleaner) Cleanup(papers []*types.Paper) { f.papers = papers }

func scored(title string, score int) *types.Paper {
	return &types.Paper{
		Title:     title,
		Relevance: &types.PaperRelevance{RelevanceScore: score},
	}
}

type testPipeline struct {
	*Pipeline
	scraper *fakeScraper
	enrich  *fakeEnricher
	poster  *fakePoster
	store   *fakeStore
	cleaner *fakeCleaner
	session *fakeSession
	log     *bytes.Buffer
}

func newTestPipeline(cfg types.Config, scraper *fakeScraper) *testPipeline {
	tp := &testPipeline{
		scraper: scraper,
		enrich:  &fakeEnricher{},
		poster:  &fakePoster{},
		store:   &fakeStore{posted: map[string]bool{}},
		cleaner: &fakeCleaner{},
		session: &fakeSession{},
		log:     &bytes.Buffer{},
	}
	tp.Pipeline = New(cfg, scraper, tp.enrich, tp.poster, tp.store, tp.cleaner, tp.log)
	tp.Pipeline.launch = func(context.Context) (session, error) { return tp.session, nil }
	return tp
}

func TestRun_SingleFeed(t *testing.T) {
	cfg := types.Config{Sort: types.SortRelevanceDesc}
	cfg.Scrape.FeedURL = "https://www.scholar-inbox.com/login/abc123"

	papers := []*types.Paper{scored("low", 40), scored("high", 90), scored("mid", 70)}
	tp := newTestPipeline(cfg, &fakeScraper{byURL: map[string][]*types.Paper{
		cfg.Scrape.FeedURL: papers,
	}})

	if err := tp.Run(context.Background(), nil, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantOrder := []string{"high", "mid", "low"}
	if len(tp.poster.titles) != len(wantOrder) {
		t.Fatalf("posted %v, want %v", tp.poster.titles, wantOrder)
	}
	for i, title := range wantOrder {
		if tp.poster.titles[i] != title {
			t.Errorf("posted[%d] = %q, want %q", i, tp.poster.titles[i], title)
		}
	}
	if len(tp.enrich.titles) != 3 {
		t.Errorf("enriched %d papers, want 3", len(tp.enrich.titles))
	}
	if len(tp.store.marked) != 3 {
		t.Errorf("marked %d papers, want 3", len(tp.store.marked))
	}
	if len(tp.cleaner.papers) != 3 {
		t.Errorf("cleanup saw %d papers, want 3", len(tp.cleaner.papers))
	}
	if !tp.session.closed {
		t.Error("session not closed")
	}
	for i, pg := range tp.session.pages {
		if !pg.closed {
			t.Errorf("page %d not closed", i)
		}
	}
	if !strings.Contains(tp.log.String(), "workflow completed: 3/3 papers posted") {
		t.Errorf("missing completion line: %q", tp.log.String())
	}
}

func TestRun_DateRangePerDayIsolation(t *testing.T) {
	cfg := types.Config{Sort: types.SortDOMOrder}
	cfg.Scrape.FeedURL = "https://www.scholar-inbox.com/login/abc123"

	goodURL := "https://www.scholar-inbox.com/login?sha_key=abc123&date=10-31-2025"
	badURL := "https://www.scholar-inbox.com/login?sha_key=abc123&date=11-01-2025"

	tp := newTestPipeline(cfg, &fakeScraper{
		byURL:   map[string][]*types.Paper{goodURL: {scored("survivor", 80)}},
		failURL: badURL,
	})

	start, _ := dateutil.ParseDate("2025-10-31")
	end, _ := dateutil.ParseDate("2025-11-01")
	rng, err := dateutil.NewDateRange(start, end)
	if err != nil {
		t.Fatal(err)
	}

	if err := tp.Run(context.Background(), &rng, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(tp.scraper.urls) != 2 {
		t.Fatalf("scraped %d urls, want 2: %v", len(tp.scraper.urls), tp.scraper.urls)
	}
	if tp.scraper.urls[0] != goodURL || tp.scraper.urls[1] != badURL {
		t.Errorf("urls = %v", tp.scraper.urls)
	}
	if len(tp.poster.titles) != 1 || tp.poster.titles[0] != "survivor" {
		t.Errorf("posted = %v, want [survivor]", tp.poster.titles)
	}
	if !strings.Contains(tp.log.String(), "warning: scraping 2025-11-01") {
		t.Errorf("missing per-day warning: %q", tp.log.String())
	}
	// One page per day, each torn down.
	if len(tp.session.pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(tp.session.pages))
	}
	for i, pg := range tp.session.pages {
		if !pg.closed {
			t.Errorf("page %d not closed", i)
		}
	}
}

func TestRun_RelevanceThreshold(t *testing.T) {
	cfg := types.Config{
		Sort:   types.SortDOMOrder,
		Filter: types.FilterConfig{SetThreshold: true, RelevanceThreshold: 60},
	}
	cfg.Scrape.FeedURL = "https://example.com/feed?sha_key=k"

	unscored := &types.Paper{Title: "unscored"}
	tp := newTestPipeline(cfg, &fakeScraper{byURL: map[string][]*types.Paper{
		cfg.Scrape.FeedURL: {scored("keep", 75), scored("drop", 30), unscored},
	}})

	if err := tp.Run(context.Background(), nil, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(tp.poster.titles) != 1 || tp.poster.titles[0] != "keep" {
		t.Errorf("posted = %v, want [keep]", tp.poster.titles)
	}
	if !strings.Contains(tp.log.String(), "filtered out 2 papers below relevance threshold 60") {
		t.Errorf("missing filter line: %q", tp.log.String())
	}
}

func TestRun_SkipsAlreadyPosted(t *testing.T) {
	cfg := types.Config{Sort: types.SortDOMOrder}
	cfg.Scrape.FeedURL = "https://example.com/feed?sha_key=k"

	seenPaper := &types.Paper{Title: "old", ArxivID: "2301.00001"}
	fresh := &types.Paper{Title: "new", ArxivID: "2301.00002"}
	tp := newTestPipeline(cfg, &fakeScraper{byURL: map[string][]*types.Paper{
		cfg.Scrape.FeedURL: {seenPaper, fresh},
	}})
	tp.store.posted[seenPaper.Key()] = true

	if err := tp.Run(context.Background(), nil, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(tp.poster.titles) != 1 || tp.poster.titles[0] != "new" {
		t.Errorf("posted = %v, want [new]", tp.poster.titles)
	}
	if len(tp.enrich.titles) != 1 {
		t.Errorf("enriched = %v, want only the fresh paper", tp.enrich.titles)
	}
	if !strings.Contains(tp.log.String(), "skipping already-posted paper: old") {
		t.Errorf("missing skip line: %q", tp.log.String())
	}
}

func TestRun_PostFailureContinues(t *testing.T) {
	cfg := types.Config{Sort: types.SortDOMOrder}
	cfg.Scrape.FeedURL = "https://example.com/feed?sha_key=k"

	tp := newTestPipeline(cfg, &fakeScraper{byURL: map[string][]*types.Paper{
		cfg.Scrape.FeedURL: {scored("first", 80), scored("second", 70)},
	}})
	tp.poster.failTitle = "first"

	if err := tp.Run(context.Background(), nil, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(tp.poster.titles) != 1 || tp.poster.titles[0] != "second" {
		t.Errorf("posted = %v, want [second]", tp.poster.titles)
	}
	// The failed paper must not be recorded as posted.
	if len(tp.store.marked) != 1 {
		t.Errorf("marked = %v, want one entry", tp.store.marked)
	}
	if !strings.Contains(tp.log.String(), "workflow completed: 1/2 papers posted") {
		t.Errorf("missing completion line: %q", tp.log.String())
	}
}

func TestRun_NoPapers(t *testing.T) {
	cfg := types.Config{}
	cfg.Scrape.FeedURL = "https://example.com/feed?sha_key=k"

	tp := newTestPipeline(cfg, &fakeScraper{byURL: map[string][]*types.Paper{}})

	if err := tp.Run(context.Background(), nil, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(tp.poster.titles) != 0 {
		t.Errorf("posted = %v, want none", tp.poster.titles)
	}
	if !strings.Contains(tp.log.String(), "no papers found") {
		t.Errorf("missing no-papers line: %q", tp.log.String())
	}
}

func TestOpenSession_InstallRetry(t *testing.T) {
	cfg := types.Config{}
	cfg.Scrape.FeedURL = "https://example.com/feed?sha_key=k"
	cfg.Scrape.BrowserInstallCmd = "true"

	tp := newTestPipeline(cfg, &fakeScraper{byURL: map[string][]*types.Paper{
		cfg.Scrape.FeedURL: {scored("after install", 50)},
	}})

	launches := 0
	tp.Pipeline.launch = func(context.Context) (session, error) {
		launches++
		if launches == 1 {
			return nil, browser.ErrBrowserNotFound
		}
		return tp.session, nil
	}

	if err := tp.Run(context.Background(), nil, 0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if launches != 2 {
		t.Errorf("launches = %d, want 2", launches)
	}
	if len(tp.poster.titles) != 1 {
		t.Errorf("posted = %v, want one paper", tp.poster.titles)
	}
}

func TestOpenSession_NoInstallCommand(t *testing.T) {
	cfg := types.Config{}
	cfg.Scrape.FeedURL = "https://example.com/feed?sha_key=k"

	tp := newTestPipeline(cfg, &fakeScraper{})
	tp.Pipeline.launch = func(context.Context) (session, error) {
		return nil, browser.ErrBrowserNotFound
	}

	err := tp.Run(context.Background(), nil, 0)
	if err == nil {
		t.Fatal("expected launch failure to surface")
	}
}
