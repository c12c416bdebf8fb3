// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"strconv"
)

// In-page scripts. Each is an async IIFE whose settled value is returned to
// Go through the page automation bridge; the scripts only perform UI
// interactions and raw harvesting, leaving all pattern matching to Go.

// harvestBibtexScript walks every share affordance on the page, opens its
// citation-export dialog, and collects the raw bibtex text. Each paper card
// renders two share buttons, deduplicated by rounding their vertical
// position to the nearest 100 px. Dialogs stack, so failures close up to two
// backdrops before moving on; one broken card never stops the harvest.
const harvestBibtexScript = `
(async () => {
	const allShareButtons = Array.from(document.querySelectorAll('button[aria-label="Share this paper"]'));
	const shareButtons = [];
	const seenY = new Set();
	for (const btn of allShareButtons) {
		const y = Math.round(btn.getBoundingClientRect().y / 100) * 100;
		if (!seenY.has(y)) {
			seenY.add(y);
			shareButtons.push(btn);
		}
	}

	const closeDialogs = async (count) => {
		for (let i = 0; i < count; i++) {
			const backdrop = document.querySelector('[class*="MuiBackdrop-root"]');
			if (backdrop) {
				backdrop.click();
				await new Promise(r => setTimeout(r, 300));
			}
		}
	};

	const results = [];
	for (const btn of shareButtons) {
		try {
			btn.click();
			await new Promise(r => setTimeout(r, 800));

			const bibtexBtn = document.querySelector('button[aria-label="Copy bibtex or add this paper to Zotero/Mendeley"]');
			if (!bibtexBtn) {
				await closeDialogs(1);
				continue;
			}
			bibtexBtn.click();
			await new Promise(r => setTimeout(r, 500));

			let bibtex = '';
			for (const ta of document.querySelectorAll('textarea')) {
				if (ta.value && (ta.value.includes('@inproceedings') || ta.value.includes('@article'))) {
					bibtex = ta.value;
					break;
				}
			}

			await closeDialogs(2);
			await new Promise(r => setTimeout(r, 200));

			if (bibtex) {
				results.push(bibtex);
			}
		} catch (err) {
			try { await closeDialogs(2); } catch (e) {}
		}
	}
	return results;
})()
`

// findAnchorJS locates the link element anchoring one paper, preferring an
// identifier match over fuzzy title containment. Shared preamble for the
// per-paper interaction scripts; mirrors findPaperAnchor on the Go side.
const findAnchorJS = `
	const findAnchor = (id, title) => {
		if (id) {
			return document.querySelector('a[href*="' + id + '"]');
		}
		for (const link of document.querySelectorAll('a')) {
			const text = (link.textContent || '').trim();
			if (text.length > 30 && title &&
					(text.includes(title.substring(0, 30)) || title.includes(text.substring(0, 30)))) {
				return link;
			}
		}
		return null;
	};
`

// expandFiguresScript walks the paper's ancestor chain clicking "show
// more" controls so that lazily-rendered teaser figures are present in the
// next snapshot. The ascent stops at the first level that holds a
// teaser-named image after its control fires; levels above the winning one
// are never touched, so neighboring cards stay undisturbed. Resolves to
// whether anything was expanded.
func expandFiguresScript(arxivID, title string) string {
	return fmt.Sprintf(`
(async () => {
	%s
	const anchor = findAnchor(%s, %s);
	if (!anchor) {
		return false;
	}
	const teaserName = /^\d+\.\d+\.jpe?g$/i;
	const hasTeaser = (el) => Array.from(el.querySelectorAll('img')).some((img) => {
		const src = img.src || '';
		return teaserName.test(src.substring(src.lastIndexOf('/') + 1));
	});
	const clicked = new Set();
	let container = anchor;
	for (let i = 0; i < 15 && container; i++) {
		const btn = container.querySelector('button[aria-label="show more"]');
		if (btn && !clicked.has(btn)) {
			clicked.add(btn);
			btn.click();
			await new Promise(r => setTimeout(r, 2000));
		}
		if (hasTeaser(container)) {
			break;
		}
		container = container.parentElement;
	}
	return clicked.size > 0;
})()
`, findAnchorJS, strconv.Quote(arxivID), strconv.Quote(title))
}

// showAbstractScript clicks the paper's "show abstract" control and waits
// for the text to render. Resolves to whether a control was found.
func showAbstractScript(arxivID, title string) string {
	return fmt.Sprintf(`
(async () => {
	%s
	const anchor = findAnchor(%s, %s);
	if (!anchor) {
		return false;
	}
	let container = anchor.parentElement;
	for (let i = 0; i < 10 && container; i++) {
		const btn = container.querySelector('button[aria-label="show abstract"]');
		if (btn) {
			btn.click();
			await new Promise(r => setTimeout(r, 2000));
			return true;
		}
		container = container.parentElement;
	}
	return false;
})()
`, findAnchorJS, strconv.Quote(arxivID), strconv.Quote(title))
}
