// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-digest/internal/arxiv"
	"github.com/pdiddy/scholar-digest/internal/browser"
	"github.com/pdiddy/scholar-digest/internal/dateutil"
	"github.com/pdiddy/scholar-digest/internal/imagecache"
	"github.com/pdiddy/scholar-digest/internal/scrape"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Extract papers from the feed without posting",
	Long: `Scrape renders the feed, extracts the recommended papers with their
metadata, relevance signals, and teaser figures, and writes them as YAML or
JSON. Nothing is sent to Slack and no LLM calls are made.`,
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().String("date", "", "date or range to fetch (e.g. '2025-10-31' or '2025-10-31 to 2025-11-02')")
	scrapeCmd.Flags().Int("max-papers", 0, "cap papers taken per page (0 = no cap)")
	scrapeCmd.Flags().String("format", "yaml", "output format: yaml or json")
	scrapeCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if cfg.Scrape.FeedURL == "" {
		return fmt.Errorf("no feed URL configured: set scrape.feed_url or provide .secrets/feed-url")
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}

	dateRange, err := parseDateFlag(cmd, cfg)
	if err != nil {
		return err
	}
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	if maxPapers == 0 {
		maxPapers = cfg.Scrape.MaxPapers
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	papers, err := scrapeFeed(ctx, cfg, dateRange, maxPapers)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "extracted %d papers\n", len(papers))

	return writePapers(cmd, papers, format)
}

func scrapeFeed(ctx context.Context, cfg types.Config, dateRange *dateutil.DateRange, maxPapers int) ([]*types.Paper, error) {
	w := os.Stderr
	httpClient := &http.Client{Timeout: cfg.Scrape.Timeout}

	fetcher := arxiv.NewClient(httpClient, cfg.Scrape.UserAgent, w)
	images := imagecache.New(cfg.Scrape.CacheDir, httpClient, cfg.Scrape.UserAgent, w)
	scraper := scrape.New(cfg.Scrape, fetcher, images, w)

	b, err := launchBrowser(ctx, cfg, w)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	urls := []string{cfg.Scrape.FeedURL}
	labels := []string{"feed"}
	if dateRange != nil {
		urls = urls[:0]
		labels = labels[:0]
		for _, day := range dateRange.Dates() {
			u, err := dateutil.BuildFeedURL(cfg.Scrape.FeedURL, day)
			if err != nil {
				return nil, fmt.Errorf("building feed URL: %w", err)
			}
			urls = append(urls, u)
			labels = append(labels, day.Format("2006-01-02"))
		}
	}

	var papers []*types.Paper
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := b.NewPage()
		got, err := scraper.ScrapePapers(ctx, page, u, maxPapers)
		page.Close()
		if err != nil {
			fmt.Fprintf(w, "warning: scraping %s: %v\n", labels[i], err)
			continue
		}
		papers = append(papers, got...)
	}
	return papers, nil
}

func launchBrowser(ctx context.Context, cfg types.Config, w *os.File) (*browser.Browser, error) {
	opts := browser.Options{
		Headless:  cfg.Scrape.Headless,
		UserAgent: cfg.Scrape.UserAgent,
	}
	b, err := browser.Launch(ctx, opts)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, browser.ErrBrowserNotFound) || cfg.Scrape.BrowserInstallCmd == "" {
		return nil, err
	}
	if installErr := browser.Install(cfg.Scrape.BrowserInstallCmd, w); installErr != nil {
		return nil, fmt.Errorf("installing browser: %w", installErr)
	}
	return browser.Launch(ctx, opts)
}

func writePapers(cmd *cobra.Command, papers []*types.Paper, format string) error {
	var data []byte
	var err error
	switch format {
	case "json":
		data, err = json.MarshalIndent(papers, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	default:
		data, err = yaml.Marshal(papers)
	}
	if err != nil {
		return fmt.Errorf("encoding papers: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", output)
	return nil
}
