// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-digest/internal/arxiv"
	"github.com/pdiddy/scholar-digest/internal/browser"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

// Strategy extracts raw paper records from a rendered feed page. The feed's
// front-end has shipped more than one markup generation, so strategies are
// tried in sequence until one yields records; a markup change means adding
// a strategy, not rewriting the extractor.
type Strategy interface {
	// Name identifies the strategy in progress output.
	Name() string

	// Extract returns the page's papers in document encounter order. A
	// malformed individual paper is skipped, never fatal; an error means the
	// strategy could not read the page at all.
	Extract(page browser.Page) ([]types.RawPaperRecord, error)
}

// bibtexStrategy is the structured-export strategy: it drives each paper's
// share dialog to export a citation record, then parses fields out of the
// bibtex text. Preferred because the exported fields are exact, not scraped
// prose.
type bibtexStrategy struct {
	w io.Writer
}

func (s *bibtexStrategy) Name() string { return "bibtex" }

func (s *bibtexStrategy) Extract(page browser.Page) ([]types.RawPaperRecord, error) {
	var harvested []string
	if err := page.Evaluate(harvestBibtexScript, &harvested); err != nil {
		return nil, fmt.Errorf("harvesting citation exports: %w", err)
	}

	var doc *goquery.Document
	records := make([]types.RawPaperRecord, 0, len(harvested))
	for _, bib := range harvested {
		rec, ok := recordFromBibtex(bib)
		if !ok {
			fmt.Fprintf(s.w, "warning: skipping citation without title or authors\n")
			continue
		}
		if !rec.IsArxiv {
			// Venue papers carry no identifier; recover their URL from the
			// title link still on the page.
			if doc == nil {
				doc = snapshotDoc(page, s.w)
			}
			if doc != nil {
				if href, ok := findTitleLinkURL(doc, rec.Title); ok {
					rec.PaperURL = href
				} else {
					fmt.Fprintf(s.w, "warning: no page link found for %q\n", rec.Title)
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// linkDOMStrategy is the link-grouping strategy: it groups outbound arXiv
// links by embedded identifier and classifies each link's visible text as
// title or author list by length and punctuation. Fallback for feed
// generations without the share/export dialog.
type linkDOMStrategy struct {
	w io.Writer
}

func (s *linkDOMStrategy) Name() string { return "link-dom" }

func (s *linkDOMStrategy) Extract(page browser.Page) ([]types.RawPaperRecord, error) {
	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	type group struct {
		id      string
		title   string
		authors string
	}
	groups := make(map[string]*group)
	var order []string

	doc.Find(`a[href*="arxiv.org"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		id := arxiv.ExtractID(href)
		if id == "" {
			return
		}
		g, ok := groups[id]
		if !ok {
			g = &group{id: id}
			groups[id] = g
			order = append(order, id)
		}

		text := strings.TrimSpace(link.Text())
		n := runeLen(text)
		switch {
		case n > matchPrefixLen && strings.Contains(text, ","):
			if g.authors == "" {
				g.authors = text
			}
		case n > matchPrefixLen && !strings.Contains(text, ",") && !strings.Contains(text, "|"):
			if g.title == "" {
				g.title = text
			}
		}
	})

	var records []types.RawPaperRecord
	for _, id := range order {
		g := groups[id]
		if g.title == "" || g.authors == "" {
			fmt.Fprintf(s.w, "warning: incomplete link group for %s, skipping\n", id)
			continue
		}
		records = append(records, types.RawPaperRecord{
			Title:       g.title,
			AuthorsText: g.authors,
			ArxivID:     id,
			IsArxiv:     true,
			PaperURL:    arxiv.AbsURL(id),
			Journal:     arxivJournalName,
		})
	}
	return records, nil
}
