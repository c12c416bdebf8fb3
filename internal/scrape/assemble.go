// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-digest/internal/arxiv"
	"github.com/pdiddy/scholar-digest/internal/browser"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

// metadataFetcher resolves arXiv identifiers to normalized metadata. A
// false return means not found; the assembler proceeds on scraped fields.
type metadataFetcher interface {
	Fetch(ctx context.Context, id string) (*types.ArxivMetadata, bool)
}

// imageStore persists a teaser image locally and returns its path.
type imageStore interface {
	Download(ctx context.Context, imageURL, paperID string, index int) (string, error)
}

// assemble builds one Paper from a raw record: authoritative metadata
// overrides scraped fields wherever present, then the page heuristics fill
// in relevance, abstract, and teaser figures. Failures inside any single
// enrichment degrade that field only.
func (s *Scraper) assemble(ctx context.Context, page browser.Page, rec types.RawPaperRecord) *types.Paper {
	paper := &types.Paper{
		Title:   rec.Title,
		Authors: parseAuthors(rec.AuthorsText),
	}

	if rec.IsArxiv && rec.ArxivID != "" {
		paper.ArxivID = rec.ArxivID
		paper.ArxivURL = arxiv.AbsURL(rec.ArxivID)
		paper.ArxivHTMLURL = arxiv.HTMLURL(rec.ArxivID)
		if md, ok := s.fetcher.Fetch(ctx, rec.ArxivID); ok {
			mergeMetadata(paper, md)
		}
	} else {
		paper.ArxivURL = rec.PaperURL
		switch {
		case rec.Booktitle != "":
			paper.Conference = rec.Booktitle
		case rec.Journal != "":
			paper.Conference = rec.Journal
		}
	}

	if doc := snapshotDoc(page, s.w); doc != nil {
		if anchor := findPaperAnchor(doc, rec.ArxivID, rec.Title); anchor != nil {
			paper.Relevance = locateRelevance(anchor)
		}
	}
	if paper.Relevance == nil {
		fmt.Fprintf(s.w, "no relevance signal for %q\n", paper.Title)
	}

	if paper.Abstract == "" {
		paper.Abstract = s.extractAbstract(page, rec)
	}
	paper.TeaserFigures = s.extractFigures(ctx, page, rec, paper.Key())

	return paper
}

// mergeMetadata lets non-empty authoritative fields win over their scraped
// equivalents.
func mergeMetadata(paper *types.Paper, md *types.ArxivMetadata) {
	if md.Title != "" {
		paper.Title = md.Title
	}
	if len(md.Authors) > 0 {
		paper.Authors = md.Authors
	}
	if md.Abstract != "" {
		paper.Abstract = md.Abstract
	}
	if len(md.Categories) > 0 {
		paper.Categories = md.Categories
	}
	if md.Published != "" {
		paper.SubmittedDate = md.Published
	}
	if md.AbsURL != "" {
		paper.ArxivURL = md.AbsURL
	}
	if md.DOI != "" {
		paper.DOI = md.DOI
	}
}

// extractAbstract triggers the paper's "show abstract" control and captures
// the first paragraph-like block exceeding 100 characters near the anchor.
func (s *Scraper) extractAbstract(page browser.Page, rec types.RawPaperRecord) string {
	var clicked bool
	if err := page.Evaluate(showAbstractScript(rec.ArxivID, rec.Title), &clicked); err != nil {
		fmt.Fprintf(s.w, "warning: expanding abstract for %q: %v\n", rec.Title, err)
		return ""
	}
	if !clicked {
		return ""
	}

	doc := snapshotDoc(page, s.w)
	if doc == nil {
		return ""
	}
	anchor := findPaperAnchor(doc, rec.ArxivID, rec.Title)
	if anchor == nil {
		return ""
	}

	var abstract string
	walkUp(anchor, false, 10, func(level *goquery.Selection) bool {
		level.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			if text := p.Text(); runeLen(text) > 100 {
				abstract = strings.TrimSpace(text)
				return false
			}
			return true
		})
		return abstract != ""
	})
	return abstract
}

// extractFigures expands the paper's preview, locates its teaser images and
// captions, and downloads the deduplicated set. A failed download skips
// that one image.
func (s *Scraper) extractFigures(ctx context.Context, page browser.Page, rec types.RawPaperRecord, paperID string) []types.TeaserFigure {
	var expanded bool
	if err := page.Evaluate(expandFiguresScript(rec.ArxivID, rec.Title), &expanded); err != nil {
		fmt.Fprintf(s.w, "warning: expanding figures for %q: %v\n", rec.Title, err)
	}

	doc := snapshotDoc(page, s.w)
	if doc == nil {
		return nil
	}
	anchor := findPaperAnchor(doc, rec.ArxivID, rec.Title)
	if anchor == nil {
		fmt.Fprintf(s.w, "warning: no anchor found for %q, skipping figures\n", rec.Title)
		return nil
	}

	refs := dedupFigures(collectFigures(anchor))
	var figures []types.TeaserFigure
	for i, ref := range refs {
		path, err := s.images.Download(ctx, ref.URL, paperID, i)
		if err != nil {
			fmt.Fprintf(s.w, "warning: downloading figure %s: %v\n", ref.URL, err)
			continue
		}
		figures = append(figures, types.TeaserFigure{
			ImageURL:  ref.URL,
			Caption:   ref.Caption,
			LocalPath: path,
		})
	}
	return figures
}

// parseAuthors splits a citation author string into individual names.
func parseAuthors(authorsText string) []string {
	if authorsText == "" {
		return nil
	}
	var authors []string
	for _, part := range strings.Split(authorsText, ",") {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}
