// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Teaser figures are the feed's preview images. The site names them with a
// numeric "<id>.<index>" filename, which is the one stable marker
// distinguishing them from icons and avatars; captions sit somewhere in the
// surrounding containers and are recovered by a bounded ancestor walk from
// each image.
const (
	figureAncestorLevels  = 15
	captionAncestorLevels = 8
	captionMaxLen         = 500
	captionDedupPrefixLen = 50
)

var (
	teaserImagePattern  = regexp.MustCompile(`(?i)^\d+\.\d+\.jpe?g$`)
	captionLabelPattern = regexp.MustCompile(`(?i)(Fig\.?\s*\d+|Figure\s*\d+|TABLE\s*[IVX]+)[.:]`)
)

// figureRef is a located teaser image before download.
type figureRef struct {
	URL     string
	Caption string
}

// collectFigures ascends from a paper's anchor until it reaches the first
// level containing at least one teaser-named image, then pairs every such
// image at that level with its nearest caption. Images whose filename does
// not match the teaser convention are never included.
func collectFigures(anchor *goquery.Selection) []figureRef {
	var refs []figureRef
	walkUp(anchor, true, figureAncestorLevels, func(level *goquery.Selection) bool {
		var imgs []*goquery.Selection
		level.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("src")
			if teaserImagePattern.MatchString(filenameOf(src)) {
				imgs = append(imgs, img)
			}
		})
		if len(imgs) == 0 {
			return false
		}
		for i, img := range imgs {
			src, _ := img.Attr("src")
			refs = append(refs, figureRef{
				URL:     src,
				Caption: captionForImage(img, i+1),
			})
		}
		return true
	})
	return refs
}

// captionForImage ascends from the image looking for surrounding text that
// carries a figure or table label, and extracts the label through the
// following paragraph break. When nothing within reach matches, a
// positional placeholder stands in so the figure still posts with context.
func captionForImage(img *goquery.Selection, index int) string {
	var caption string
	walkUp(img, false, captionAncestorLevels, func(level *goquery.Selection) bool {
		text := level.Text()
		loc := captionLabelPattern.FindStringIndex(text)
		if loc == nil {
			return false
		}
		caption = text[loc[0]:]
		if cut := strings.Index(caption, "\n\n"); cut >= 0 {
			caption = caption[:cut]
		}
		caption = truncateRunes(collapseWhitespace(caption), captionMaxLen)
		return true
	})
	if caption == "" {
		caption = fmt.Sprintf("Figure %d", index)
	}
	return caption
}

// dedupFigures collapses references sharing both URL and the first 50
// characters of caption, keeping the first occurrence's position. Two
// figures with the same URL but materially different captions stay
// distinct. Idempotent.
func dedupFigures(refs []figureRef) []figureRef {
	type key struct {
		url    string
		prefix string
	}
	seen := make(map[key]bool, len(refs))
	unique := refs[:0:0]
	for _, ref := range refs {
		k := key{url: ref.URL, prefix: runePrefix(ref.Caption, captionDedupPrefixLen)}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, ref)
	}
	return unique
}

func filenameOf(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
