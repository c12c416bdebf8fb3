// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

// missingRelevance sorts papers without a relevance signal behind every
// scored paper.
const missingRelevance = -999999

// filterPapers applies the configured relevance threshold and code-link
// requirement, logging how many papers each filter dropped.
func filterPapers(papers []*types.Paper, cfg types.FilterConfig, w io.Writer) []*types.Paper {
	if w == nil {
		w = io.Discard
	}

	if cfg.SetThreshold {
		kept := papers[:0:0]
		for _, p := range papers {
			if p.Relevance != nil && p.Relevance.RelevanceScore >= cfg.RelevanceThreshold {
				kept = append(kept, p)
			}
		}
		if dropped := len(papers) - len(kept); dropped > 0 {
			fmt.Fprintf(w, "filtered out %d papers below relevance threshold %d\n",
				dropped, cfg.RelevanceThreshold)
		}
		papers = kept
	}

	if cfg.RequireGithub {
		kept := papers[:0:0]
		for _, p := range papers {
			if p.GithubURL != "" {
				kept = append(kept, p)
			}
		}
		if dropped := len(papers) - len(kept); dropped > 0 {
			fmt.Fprintf(w, "filtered out %d papers without a code link\n", dropped)
		}
		papers = kept
	}

	return papers
}

// sortPapers orders papers in place. An unknown order falls back to
// relevance, highest first. DOM order leaves the slice untouched.
func sortPapers(papers []*types.Paper, order types.SortOrder) {
	score := func(p *types.Paper) int {
		if p.Relevance == nil {
			return missingRelevance
		}
		return p.Relevance.RelevanceScore
	}

	switch order {
	case types.SortRelevanceAsc:
		sort.SliceStable(papers, func(i, j int) bool { return score(papers[i]) < score(papers[j]) })
	case types.SortDateDesc:
		sort.SliceStable(papers, func(i, j int) bool {
			return submittedDate(papers[i]).After(submittedDate(papers[j]))
		})
	case types.SortDateAsc:
		sort.SliceStable(papers, func(i, j int) bool {
			return submittedDate(papers[i]).Before(submittedDate(papers[j]))
		})
	case types.SortDOMOrder:
	case types.SortRelevanceDesc:
		fallthrough
	default:
		sort.SliceStable(papers, func(i, j int) bool { return score(papers[i]) > score(papers[j]) })
	}
}
