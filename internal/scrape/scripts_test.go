// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"strings"
	"testing"
)

func TestExpandFiguresScript_StopsAtFirstTeaserLevel(t *testing.T) {
	script := expandFiguresScript("2501.11111", "Some Title")

	// The ascent must halt at the first level holding a teaser-named image,
	// so expand controls above the winning level are never clicked.
	for _, fragment := range []string{
		`^\d+\.\d+\.jpe?g$`,
		"if (hasTeaser(container)) {",
		"break;",
	} {
		if !strings.Contains(script, fragment) {
			t.Errorf("script missing %q", fragment)
		}
	}
	if stop := strings.Index(script, "hasTeaser(container)"); stop >= 0 {
		ascend := strings.Index(script, "container.parentElement")
		if ascend >= 0 && ascend < stop {
			t.Error("level check runs after ascending, want it before")
		}
	}
}

func TestPaperScripts_QuoteIdentifiers(t *testing.T) {
	title := `A "Quoted" Title`
	for name, script := range map[string]string{
		"expand":   expandFiguresScript("2501.11111", title),
		"abstract": showAbstractScript("2501.11111", title),
	} {
		if !strings.Contains(script, `"A \"Quoted\" Title"`) {
			t.Errorf("%s script does not escape quotes in the title", name)
		}
	}
}
