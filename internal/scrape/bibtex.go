// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"regexp"

	"github.com/pdiddy/scholar-digest/internal/arxiv"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

// Bibtex field extraction. The exported citations are machine-generated and
// regular, so a per-field pattern is more robust here than a full bibtex
// grammar: a malformed entry yields empty fields instead of a parse error.
var (
	bibtexAuthor    = regexp.MustCompile(`author=\{([^}]+)\}`)
	bibtexTitle     = regexp.MustCompile(`title=\{([^}]+)\}`)
	bibtexJournal   = regexp.MustCompile(`journal=\{([^}]+)\}`)
	bibtexBooktitle = regexp.MustCompile(`booktitle=\{([^}]+)\}`)
	bibtexVolume    = regexp.MustCompile(`volume=\{([^}]+)\}`)
	bibtexYear      = regexp.MustCompile(`year=\{([^}]+)\}`)
)

// arxivJournalName is the journal field value identifying preprint entries.
// For those the volume field carries the arXiv identifier.
const arxivJournalName = "arXiv"

// recordFromBibtex parses one exported citation into a raw record. Entries
// missing either a title or an author string are rejected (ok is false);
// they cannot produce a usable paper.
func recordFromBibtex(bib string) (types.RawPaperRecord, bool) {
	field := func(re *regexp.Regexp) string {
		if m := re.FindStringSubmatch(bib); m != nil {
			return m[1]
		}
		return ""
	}

	rec := types.RawPaperRecord{
		Title:       field(bibtexTitle),
		AuthorsText: field(bibtexAuthor),
		Journal:     field(bibtexJournal),
		Booktitle:   field(bibtexBooktitle),
		Year:        field(bibtexYear),
		Bibtex:      bib,
	}
	if rec.Title == "" || rec.AuthorsText == "" {
		return rec, false
	}

	if volume := field(bibtexVolume); rec.Journal == arxivJournalName && volume != "" {
		rec.ArxivID = volume
		rec.IsArxiv = true
		rec.PaperURL = arxiv.AbsURL(volume)
	}
	return rec, true
}
