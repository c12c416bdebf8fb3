// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package slack

import (
	"fmt"
	"strings"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

const (
	maxMessageAuthors    = 5
	maxMessageCategories = 3
)

// block is a Block Kit layout element. Only section and divider blocks are
// used here.
type block struct {
	Type string     `json:"type"`
	Text *blockText `json:"text,omitempty"`
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwnSection(text string) block {
	return block{Type: "section", Text: &blockText{Type: "mrkdwn", Text: text}}
}

func divider() block {
	return block{Type: "divider"}
}

// buildMainBlocks lays out the main message: linked title, authors, a
// metadata section, a links line, then the translated abstract below a
// divider. Each part is independently toggled by the post-element config.
func buildMainBlocks(paper *types.Paper, elems types.SlackPostElements) []block {
	var blocks []block

	if elems.Title {
		title := fmt.Sprintf("*%s*", paper.Title)
		switch {
		case paper.ArxivID != "":
			title = fmt.Sprintf("*<https://arxiv.org/abs/%s|%s>*", paper.ArxivID, paper.Title)
		case paper.ArxivURL != "":
			title = fmt.Sprintf("*<%s|%s>*", paper.ArxivURL, paper.Title)
		}
		blocks = append(blocks, mrkdwnSection(title))
	}

	if elems.Authors && len(paper.Authors) > 0 {
		blocks = append(blocks, mrkdwnSection("_Authors:_ "+formatAuthors(paper.Authors)))
	}

	var meta []string
	if elems.Conference && paper.Conference != "" {
		meta = append(meta, fmt.Sprintf("*Conference:* %s", paper.Conference))
	}
	if elems.SubmittedDate && paper.SubmittedDate != "" {
		meta = append(meta, fmt.Sprintf("*Submitted:* %s", paper.SubmittedDate))
	}
	if elems.Relevance && paper.Relevance != nil {
		rel := paper.Relevance
		meta = append(meta, fmt.Sprintf("*Relevance:* \U0001F4CA %d  \U0001F44D %d  \U0001F464 %d",
			rel.RelevanceScore, rel.ThumbsUp, rel.ReadBy))
	}
	if elems.Categories && len(paper.Categories) > 0 {
		cats := paper.Categories
		if len(cats) > maxMessageCategories {
			cats = cats[:maxMessageCategories]
		}
		meta = append(meta, fmt.Sprintf("*Categories:* %s", strings.Join(cats, ", ")))
	}
	if len(meta) > 0 {
		blocks = append(blocks, mrkdwnSection(strings.Join(meta, "\n")))
	}

	var links []string
	if elems.ArxivURL && paper.ArxivID != "" {
		links = append(links, fmt.Sprintf("<https://arxiv.org/pdf/%s|PDF>", paper.ArxivID))
	}
	if paper.ArxivHTMLURL != "" {
		links = append(links, fmt.Sprintf("<%s|HTML>", paper.ArxivHTMLURL))
	}
	if elems.GithubURL && paper.GithubURL != "" {
		links = append(links, fmt.Sprintf("<%s|GitHub>", paper.GithubURL))
	}
	if len(links) > 0 {
		blocks = append(blocks, mrkdwnSection("*Links:* "+strings.Join(links, " | ")))
	}

	blocks = append(blocks, divider())

	if elems.Abstract && paper.TranslatedAbstract != "" {
		blocks = append(blocks, mrkdwnSection("*Abstract:*\n"+paper.TranslatedAbstract))
	}

	return blocks
}

func formatAuthors(authors []string) string {
	if len(authors) <= maxMessageAuthors {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s et al. (%d authors)",
		strings.Join(authors[:maxMessageAuthors], ", "), len(authors))
}
