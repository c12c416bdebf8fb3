// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

const linkFeedHTML = `<html><body>
<div class="card">
	<a href="https://arxiv.org/abs/2501.11111">Adaptive Gradient Methods for Sparse Sensor Networks</a>
	<a href="https://arxiv.org/abs/2501.11111">Jane Doe, John Roe, Mary Major, Richard Miles</a>
</div>
<div class="card">
	<a href="https://arxiv.org/abs/2501.22222">Short</a>
	<a href="https://arxiv.org/abs/2501.22222">Jane Doe, John Roe, Mary Major, Richard Miles</a>
</div>
<div class="card">
	<a href="https://arxiv.org/pdf/2501.33333">Benchmarking Long-Context Retrieval | PDF mirror page</a>
	<a href="https://arxiv.org/abs/2501.33333">Benchmarking Long-Context Retrieval Across Domains</a>
	<a href="https://arxiv.org/abs/2501.33333">Jane Doe, John Roe, Mary Major, Richard Miles</a>
</div>
</body></html>`

func TestLinkDOMStrategy(t *testing.T) {
	page := &fakePage{html: linkFeedHTML}
	strat := &linkDOMStrategy{w: io.Discard}

	records, err := strat.Extract(page)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	// The second group lacks a title-classified link and is excluded.
	if len(records) != 2 {
		t.Fatalf("Extract() returned %d records, want 2: %+v", len(records), records)
	}

	first := records[0]
	if first.ArxivID != "2501.11111" || !first.IsArxiv {
		t.Errorf("first record = %+v, want arXiv 2501.11111", first)
	}
	if first.Title != "Adaptive Gradient Methods for Sparse Sensor Networks" {
		t.Errorf("first Title = %q", first.Title)
	}
	if !strings.HasPrefix(first.AuthorsText, "Jane Doe,") {
		t.Errorf("first AuthorsText = %q", first.AuthorsText)
	}
	if first.PaperURL != "https://arxiv.org/abs/2501.11111" {
		t.Errorf("first PaperURL = %q", first.PaperURL)
	}

	// Piped text is neither title nor authors; the clean link wins.
	third := records[1]
	if third.ArxivID != "2501.33333" {
		t.Errorf("second record = %+v, want arXiv 2501.33333", third)
	}
	if third.Title != "Benchmarking Long-Context Retrieval Across Domains" {
		t.Errorf("second Title = %q", third.Title)
	}
}

func TestLinkDOMStrategy_NoGarbageEntries(t *testing.T) {
	// Groups lacking either a matched title or matched authors never appear.
	html := `<html><body>
	<a href="https://arxiv.org/abs/2501.44444">Only A Title Here That Is Long Enough To Classify</a>
	<a href="https://arxiv.org/abs/2501.55555">Jane Doe, John Roe, Mary Major, Richard Miles</a>
	</body></html>`
	strat := &linkDOMStrategy{w: io.Discard}

	records, err := strat.Extract(&fakePage{html: html})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Extract() returned %d records, want 0: %+v", len(records), records)
	}
}

func TestStrategyFallback(t *testing.T) {
	noDelays(t)

	// No citation exports on the page; the link-grouping strategy takes over.
	page := &fakePage{html: linkFeedHTML, harvest: nil}
	var buf bytes.Buffer

	s := New(types.ScrapeConfig{}, &stubFetcher{}, &stubImages{}, &buf)
	papers, err := s.ScrapePapers(context.Background(), page, "https://scholar-inbox.com/papers", 0)
	if err != nil {
		t.Fatalf("ScrapePapers() error = %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("got %d papers, want 2 via fallback", len(papers))
	}
	if !strings.Contains(buf.String(), "link-dom strategy") && !strings.Contains(buf.String(), "via link-dom") {
		t.Errorf("missing fallback log, got %q", buf.String())
	}
}

func TestBibtexStrategy_ResolvesVenueLinks(t *testing.T) {
	title := "A Venue Paper With A Sufficiently Long Title For Matching"
	html := `<html><body><a href="https://conf.example.com/paper/42">` + title + `</a></body></html>`
	page := &fakePage{
		html: html,
		harvest: []string{
			`@inproceedings{x, author={Jane Doe}, title={` + title + `}, booktitle={CVPR}, year={2025}}`,
		},
	}
	strat := &bibtexStrategy{w: io.Discard}

	records, err := strat.Extract(page)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Extract() returned %d records, want 1", len(records))
	}
	if records[0].PaperURL != "https://conf.example.com/paper/42" {
		t.Errorf("PaperURL = %q, want the resolved title link", records[0].PaperURL)
	}
}
