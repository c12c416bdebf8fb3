// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

// Relevance signal recovery. The feed renders each paper's relevance score,
// thumbs-up count, and reader count as bare numerals with no semantic
// markup, so the only handle is position: small integers clustered near the
// paper's anchor, tested as contiguous triples against the value ranges the
// three counters can plausibly take. A best-effort heuristic; a miss means
// no signal, never a zero score.
const (
	relevanceAncestorLevels = 15

	// Hard bounds on the numerals considered at all, and on each triple slot.
	numeralCeiling    = 10000
	candidateCeiling  = 1000
	maxRelevanceScore = 100
	maxThumbsUp       = 50
	maxReadBy         = 1000

	// Four-digit values in this range are almost always publication years.
	yearExclusionLow  = 2000
	yearExclusionHigh = 2100
)

// locateRelevance walks up from a paper's anchor element looking for the
// first ancestor level whose numerals contain a contiguous triple matching
// the (score, thumbs-up, read-count) ranges. Returns nil when no level
// within reach yields one.
func locateRelevance(anchor *goquery.Selection) *types.PaperRelevance {
	var found *types.PaperRelevance
	walkUp(anchor, false, relevanceAncestorLevels, func(level *goquery.Selection) bool {
		candidates := leafIntegers(level)
		for i := 0; i+3 <= len(candidates); i++ {
			r, t, v := candidates[i], candidates[i+1], candidates[i+2]
			if r <= maxRelevanceScore && t <= maxThumbsUp && v <= maxReadBy {
				found = &types.PaperRelevance{
					RelevanceScore: r,
					ThumbsUp:       t,
					ReadBy:         v,
				}
				return true
			}
		}
		return false
	})
	return found
}

// leafIntegers collects, in traversal order, the values of descendant span
// and div elements whose trimmed text is exactly a non-negative integer
// literal, excluding probable years and anything too large to be a counter.
func leafIntegers(container *goquery.Selection) []int {
	var nums []int
	container.Find("span, div").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		n, err := strconv.Atoi(text)
		if err != nil || strconv.Itoa(n) != text {
			return
		}
		if n < 0 || n >= numeralCeiling {
			return
		}
		if n >= yearExclusionLow && n <= yearExclusionHigh {
			return
		}
		if n >= candidateCeiling {
			return
		}
		nums = append(nums, n)
	})
	return nums
}
