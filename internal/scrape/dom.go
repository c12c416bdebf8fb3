// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape turns the rendered recommendation feed into structured
// paper records. Extraction runs in two layers: thin in-page scripts handle
// the UI interactions (share dialogs, expandable sections), and the
// positional heuristics run in Go over HTML snapshots taken after each
// interaction.
package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-digest/internal/browser"
)

// matchPrefixLen is how many characters of link text and title are compared
// when deciding whether a link points at a given paper. Titles rendered on
// the page can diverge from the cited ones in suffix punctuation and special
// characters, so only a prefix containment test in both directions is used.
const matchPrefixLen = 30

// walkUp visits ancestors of start from the inside out, at most max of
// them, stopping early when visit returns true. When includeSelf is set the
// first visited node is start itself.
func walkUp(start *goquery.Selection, includeSelf bool, max int, visit func(*goquery.Selection) bool) {
	node := start
	if !includeSelf {
		node = start.Parent()
	}
	for i := 0; i < max && node.Length() > 0; i++ {
		if visit(node) {
			return
		}
		node = node.Parent()
	}
}

// findPaperAnchor locates the DOM element anchoring one paper: the first
// link carrying its identifier, or failing that a link whose text matches
// the title. All positional heuristics start their ancestor walks here.
func findPaperAnchor(doc *goquery.Document, arxivID, title string) *goquery.Selection {
	if arxivID != "" {
		sel := doc.Find(fmt.Sprintf(`a[href*=%q]`, arxivID)).First()
		if sel.Length() > 0 {
			return sel
		}
		return nil
	}
	var anchor *goquery.Selection
	doc.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if titleMatches(link.Text(), title) {
			anchor = link
			return false
		}
		return true
	})
	return anchor
}

// titleMatches reports whether a link's visible text plausibly names the
// given title, using prefix containment in either direction.
func titleMatches(linkText, title string) bool {
	linkText = strings.TrimSpace(linkText)
	if title == "" || runeLen(linkText) <= matchPrefixLen {
		return false
	}
	return strings.Contains(linkText, runePrefix(title, matchPrefixLen)) ||
		strings.Contains(title, runePrefix(linkText, matchPrefixLen))
}

// findTitleLinkURL recovers the target URL of the page link matching title.
func findTitleLinkURL(doc *goquery.Document, title string) (string, bool) {
	var href string
	doc.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if !titleMatches(link.Text(), title) {
			return true
		}
		href, _ = link.Attr("href")
		return false
	})
	return href, href != ""
}

func runeLen(s string) int {
	return len([]rune(s))
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// collapseWhitespace squeezes runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// snapshotDoc reads the page's current HTML and parses it. Failures are
// logged and reported as a nil document; callers degrade to whatever they
// already have.
func snapshotDoc(page browser.Page, w io.Writer) *goquery.Document {
	html, err := page.Content()
	if err != nil {
		fmt.Fprintf(w, "warning: reading page snapshot: %v\n", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		fmt.Fprintf(w, "warning: parsing page snapshot: %v\n", err)
		return nil
	}
	return doc
}
