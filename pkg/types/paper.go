// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"crypto/sha256"
	"fmt"
)

// PaperRelevance holds the per-user signal mined from the feed page near a
// paper entry. The whole struct is optional on a Paper: a nil pointer means
// no signal was found, which is distinct from a zero score.
type PaperRelevance struct {
	// RelevanceScore is the personalized score shown by the feed (0-100).
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`

	// ThumbsUp is the number of thumbs-up reactions.
	ThumbsUp int `json:"thumbs_up" yaml:"thumbs_up"`

	// ReadBy is the number of users who read the paper.
	ReadBy int `json:"read_by" yaml:"read_by"`

	// Category is the primary category label, when shown.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// TeaserFigure is a representative image extracted from a paper's rendered
// preview, paired with its best-effort caption.
type TeaserFigure struct {
	// ImageURL is the source URL of the teaser image.
	ImageURL string `json:"image_url" yaml:"image_url"`

	// Caption is the extracted caption, or a synthesized placeholder when no
	// figure/table label was found near the image.
	Caption string `json:"caption" yaml:"caption"`

	// LocalPath is the cached file path, set only after a successful
	// download. Empty means not yet downloaded or already deleted.
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`
}

// Paper holds everything known about a single recommended publication:
// fields scraped from the feed page merged with authoritative arXiv metadata,
// plus content filled in later by the LLM stage.
type Paper struct {
	// Title is the paper title. Always non-empty for an assembled paper.
	Title string `json:"title" yaml:"title"`

	// Authors lists the authors in submission order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract, empty when none could be recovered.
	Abstract string `json:"abstract" yaml:"abstract"`

	// ArxivID is the arXiv identifier (e.g. "2301.07041") when the paper is
	// an arXiv preprint, empty otherwise.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// ArxivURL is the abstract page URL for arXiv papers, or the
	// conference/journal page URL for everything else.
	ArxivURL string `json:"arxiv_url,omitempty" yaml:"arxiv_url,omitempty"`

	// ArxivHTMLURL is the arXiv HTML rendering URL, when derivable.
	ArxivHTMLURL string `json:"arxiv_html_url,omitempty" yaml:"arxiv_html_url,omitempty"`

	// GithubURL is a linked code repository, when one was found.
	GithubURL string `json:"github_url,omitempty" yaml:"github_url,omitempty"`

	// Conference is the venue name for non-arXiv papers.
	Conference string `json:"conference,omitempty" yaml:"conference,omitempty"`

	// SubmittedDate is the submission date as YYYY-MM-DD.
	SubmittedDate string `json:"submitted_date,omitempty" yaml:"submitted_date,omitempty"`

	// Categories lists arXiv category codes in source order.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// DOI is the digital object identifier, when the metadata service has one.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Relevance is the feed's per-user signal, nil when none was found.
	Relevance *PaperRelevance `json:"paper_relevance,omitempty" yaml:"paper_relevance,omitempty"`

	// TeaserFigures lists extracted preview figures in page order.
	TeaserFigures []TeaserFigure `json:"teaser_figures,omitempty" yaml:"teaser_figures,omitempty"`

	// TranslatedAbstract is filled by the LLM stage.
	TranslatedAbstract string `json:"translated_abstract,omitempty" yaml:"translated_abstract,omitempty"`

	// Summaries maps configured section names to LLM-generated text.
	Summaries map[string]string `json:"summaries,omitempty" yaml:"summaries,omitempty"`
}

// Key returns a stable identifier for the paper: the arXiv ID when present,
// otherwise the first 12 hex characters of SHA-256 of the title. Used as the
// image cache prefix and the posted-papers store key.
func (p *Paper) Key() string {
	if p.ArxivID != "" {
		return p.ArxivID
	}
	h := sha256.Sum256([]byte(p.Title))
	return fmt.Sprintf("%x", h)[:12]
}

// RawPaperRecord is the per-paper output of a page extraction strategy,
// before metadata merging and enrichment. Fields are heuristically scraped
// and individually unreliable.
type RawPaperRecord struct {
	// Title is the scraped title. Required; records without one are dropped.
	Title string `json:"title" yaml:"title"`

	// AuthorsText is the raw comma-separated author string.
	AuthorsText string `json:"authors" yaml:"authors"`

	// ArxivID is set when the record was classified as an arXiv preprint.
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// IsArxiv reports whether the record carries an arXiv identifier.
	IsArxiv bool `json:"is_arxiv" yaml:"is_arxiv"`

	// PaperURL is the paper's page URL: the arXiv abstract page for arXiv
	// papers, or a venue link recovered from the DOM otherwise. May be empty.
	PaperURL string `json:"paper_url,omitempty" yaml:"paper_url,omitempty"`

	// Journal and Booktitle are venue fields from the structured citation
	// export, when that strategy produced the record.
	Journal   string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Booktitle string `json:"booktitle,omitempty" yaml:"booktitle,omitempty"`

	// Year is the citation year field, unparsed.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Bibtex is the full citation text the record was parsed from, kept for
	// diagnostics.
	Bibtex string `json:"-" yaml:"-"`
}

// ArxivMetadata is the normalized view of one arXiv API record. It is
// session-transient: cached per ID for the lifetime of a scrape run, never
// persisted.
type ArxivMetadata struct {
	// ArxivID is the short identifier without version suffix.
	ArxivID string

	// Title and Abstract are whitespace-normalized.
	Title    string
	Abstract string

	// Authors are plain name strings in submission order.
	Authors []string

	// Published and Updated are ISO dates (YYYY-MM-DD).
	Published string
	Updated   string

	// Categories preserves the API's category order.
	Categories      []string
	PrimaryCategory string

	// AbsURL and PDFURL are canonical arXiv page URLs.
	AbsURL string
	PDFURL string

	// DOI is set when the record carries one.
	DOI string

	// JournalRef and Comment are free-text fields from the record.
	JournalRef string
	Comment    string
}
