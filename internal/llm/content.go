// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	readability "github.com/go-shiori/go-readability"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

// paperContent fetches the paper's rendered HTML page and distills it to
// readable text for the summary prompts. Anything going wrong here just
// means summaries are generated from the abstract alone.
func (c *Client) paperContent(ctx context.Context, paper *types.Paper) string {
	pageURL := paper.ArxivHTMLURL
	if pageURL == "" {
		pageURL = paper.ArxivURL
	}
	if pageURL == "" {
		return ""
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Fprintf(c.w, "warning: fetching paper content from %s: %v\n", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(c.w, "warning: paper content fetch returned HTTP %d for %s\n", resp.StatusCode, pageURL)
		return ""
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		fmt.Fprintf(c.w, "warning: distilling paper content from %s: %v\n", pageURL, err)
		return ""
	}
	return article.TextContent
}
