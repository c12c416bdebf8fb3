// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv fetches and normalizes paper metadata from the arXiv API.
// Lookups are memoized per client, so one scrape session never asks the API
// about the same identifier twice.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/scholar-digest/internal/httputil"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

// apiBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query"

const (
	absBase  = "https://arxiv.org/abs/"
	pdfBase  = "https://arxiv.org/pdf/"
	htmlBase = "https://arxiv.org/html/"
)

// idPattern matches a bare modern arXiv identifier, optionally versioned.
var idPattern = regexp.MustCompile(`^\d+\.\d+(v\d+)?$`)

// urlIDPattern extracts an identifier from an arXiv page URL.
var urlIDPattern = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf|html)/(\d+\.\d+)`)

// IsID reports whether s looks like an arXiv identifier (e.g. "2301.07041").
func IsID(s string) bool { return idPattern.MatchString(s) }

// ExtractID pulls the arXiv identifier out of an arxiv.org URL, or returns
// "" when the URL does not carry one.
func ExtractID(url string) string {
	m := urlIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// AbsURL returns the abstract page URL for an identifier.
func AbsURL(id string) string { return absBase + id }

// PDFURL returns the PDF URL for an identifier.
func PDFURL(id string) string { return pdfBase + id }

// HTMLURL returns the HTML rendering URL for an identifier.
func HTMLURL(id string) string { return htmlBase + id }

// Client queries the arXiv API and caches normalized records per identifier.
// The cache lives for the client's lifetime; create a fresh client per
// scrape session.
type Client struct {
	HTTP      *http.Client
	UserAgent string

	// W receives per-lookup progress and warnings.
	W io.Writer

	cache map[string]*types.ArxivMetadata
}

// NewClient returns a Client with an empty session cache.
func NewClient(httpClient *http.Client, userAgent string, w io.Writer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if w == nil {
		w = io.Discard
	}
	return &Client{
		HTTP:      httpClient,
		UserAgent: userAgent,
		W:         w,
		cache:     make(map[string]*types.ArxivMetadata),
	}
}

// Fetch returns the normalized metadata for an arXiv identifier. The second
// return value is false when the API has no matching record or the request
// fails; the caller proceeds with scraped fields in that case. Fetch never
// returns an error: a metadata miss must not abort a scrape batch.
func (c *Client) Fetch(ctx context.Context, id string) (*types.ArxivMetadata, bool) {
	if meta, ok := c.cache[id]; ok {
		return meta, true
	}

	meta, err := c.fetch(ctx, id)
	if err != nil {
		fmt.Fprintf(c.W, "  warning: arXiv metadata fetch failed for %s: %v\n", id, err)
		return nil, false
	}

	c.cache[id] = meta
	return meta, true
}

func (c *Client) fetch(ctx context.Context, id string) (*types.ArxivMetadata, error) {
	url := fmt.Sprintf("%s?id_list=%s", apiBase, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetryLogged(ctx, c.HTTP, req, 0, c.W)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	// The API answers an unknown id_list entry with an empty feed, or an
	// entry whose <id> carries no /abs/ path.
	for _, entry := range feed.Entries {
		shortID := shortIDFromEntryURL(entry.ID)
		if shortID == "" {
			continue
		}
		return normalizeEntry(shortID, entry), nil
	}

	return nil, fmt.Errorf("no entry found for arXiv ID %s", id)
}

// arXiv Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Categories      []atomCategory `xml:"category"`
	PrimaryCategory atomCategory   `xml:"primary_category"`
	Links           []atomLink     `xml:"link"`
	DOI             string         `xml:"doi"`
	JournalRef      string         `xml:"journal_ref"`
	Comment         string         `xml:"comment"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Rel   string `xml:"rel,attr"`
}

// normalizeEntry maps one Atom entry to the canonical metadata shape:
// whitespace-collapsed title, trimmed abstract, flattened author names,
// YYYY-MM-DD dates, and convenience URLs derived from the short identifier.
func normalizeEntry(shortID string, entry atomEntry) *types.ArxivMetadata {
	meta := &types.ArxivMetadata{
		ArxivID:         shortID,
		Title:           collapseWhitespace(entry.Title),
		Abstract:        strings.TrimSpace(entry.Summary),
		Published:       isoDate(entry.Published),
		Updated:         isoDate(entry.Updated),
		PrimaryCategory: entry.PrimaryCategory.Term,
		DOI:             strings.TrimSpace(entry.DOI),
		JournalRef:      strings.TrimSpace(entry.JournalRef),
		Comment:         strings.TrimSpace(entry.Comment),
		AbsURL:          AbsURL(shortID),
		PDFURL:          PDFURL(shortID),
	}

	for _, a := range entry.Authors {
		meta.Authors = append(meta.Authors, strings.TrimSpace(a.Name))
	}

	for _, cat := range entry.Categories {
		if cat.Term != "" {
			meta.Categories = append(meta.Categories, cat.Term)
		}
	}

	// Prefer the API's own link targets when present.
	for _, l := range entry.Links {
		switch {
		case l.Title == "pdf" && l.Href != "":
			meta.PDFURL = l.Href
		case l.Rel == "alternate" && l.Href != "":
			meta.AbsURL = l.Href
		}
	}

	return meta
}

// shortIDFromEntryURL derives the versionless short identifier from the
// entry's <id> URL (e.g. "http://arxiv.org/abs/2301.07041v2" → "2301.07041").
func shortIDFromEntryURL(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// isoDate reduces an RFC 3339 timestamp to YYYY-MM-DD, or returns "" when
// the timestamp does not parse.
func isoDate(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// collapseWhitespace trims s and folds internal whitespace runs (the API
// wraps long titles with newline-plus-indent continuations) to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
