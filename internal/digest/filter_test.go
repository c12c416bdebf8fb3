// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"testing"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

func titles(papers []*types.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.Title
	}
	return out
}

func assertOrder(t *testing.T, papers []*types.Paper, want []string) {
	t.Helper()
	got := titles(papers)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func dated(title, date string) *types.Paper {
	return &types.Paper{Title: title, SubmittedDate: date}
}

func TestFilterPapers_RequireGithub(t *testing.T) {
	papers := []*types.Paper{
		{Title: "with code", GithubURL: "https://github.com/x/y"},
		{Title: "without code"},
	}
	got := filterPapers(papers, types.FilterConfig{RequireGithub: true}, nil)
	assertOrder(t, got, []string{"with code"})
}

func TestFilterPapers_ThresholdDropsUnscored(t *testing.T) {
	papers := []*types.Paper{
		scored("at threshold", 50),
		scored("below", 49),
		{Title: "unscored"},
	}
	got := filterPapers(papers, types.FilterConfig{SetThreshold: true, RelevanceThreshold: 50}, nil)
	assertOrder(t, got, []string{"at threshold"})
}

func TestFilterPapers_Disabled(t *testing.T) {
	papers := []*types.Paper{scored("a", 1), {Title: "b"}}
	got := filterPapers(papers, types.FilterConfig{}, nil)
	assertOrder(t, got, []string{"a", "b"})
}

func TestSortPapers(t *testing.T) {
	tests := []struct {
		name   string
		order  types.SortOrder
		papers []*types.Paper
		want   []string
	}{
		{
			name:   "relevance desc",
			order:  types.SortRelevanceDesc,
			papers: []*types.Paper{scored("mid", 50), scored("top", 90), scored("low", 10)},
			want:   []string{"top", "mid", "low"},
		},
		{
			name:   "relevance asc",
			order:  types.SortRelevanceAsc,
			papers: []*types.Paper{scored("mid", 50), scored("top", 90), scored("low", 10)},
			want:   []string{"low", "mid", "top"},
		},
		{
			name:   "missing relevance sorts last on desc",
			order:  types.SortRelevanceDesc,
			papers: []*types.Paper{{Title: "unscored"}, scored("zero", 0)},
			want:   []string{"zero", "unscored"},
		},
		{
			name:   "date desc",
			order:  types.SortDateDesc,
			papers: []*types.Paper{dated("older", "2025-10-01"), dated("newer", "2025-10-15")},
			want:   []string{"newer", "older"},
		},
		{
			name:   "date asc puts unparseable first",
			order:  types.SortDateAsc,
			papers: []*types.Paper{dated("known", "2025-10-01"), dated("unknown", "sometime")},
			want:   []string{"unknown", "known"},
		},
		{
			name:   "dom order untouched",
			order:  types.SortDOMOrder,
			papers: []*types.Paper{scored("b", 10), scored("a", 90)},
			want:   []string{"b", "a"},
		},
		{
			name:   "unknown falls back to relevance desc",
			order:  types.SortOrder("alphabetical"),
			papers: []*types.Paper{scored("low", 10), scored("high", 80)},
			want:   []string{"high", "low"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sortPapers(tt.papers, tt.order)
			assertOrder(t, tt.papers, tt.want)
		})
	}
}
