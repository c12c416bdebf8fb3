// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-digest/internal/arxiv"
	"github.com/pdiddy/scholar-digest/internal/dateutil"
	"github.com/pdiddy/scholar-digest/internal/digest"
	"github.com/pdiddy/scholar-digest/internal/imagecache"
	"github.com/pdiddy/scholar-digest/internal/llm"
	"github.com/pdiddy/scholar-digest/internal/scrape"
	"github.com/pdiddy/scholar-digest/internal/seen"
	"github.com/pdiddy/scholar-digest/internal/slack"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one digest pass: scrape, enrich, and post",
	Long: `Run executes a single pass over the feed: scrape the recommended
papers, apply the configured relevance filter and sort order, translate and
summarize each paper, post everything to Slack, and clean up cached images.

With --date, each day in the given date or range is fetched separately.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("date", "", "date or range to fetch (e.g. '2025-10-31' or '2025-10-31 to 2025-11-02')")
	runCmd.Flags().Int("max-papers", 0, "cap papers taken per page (0 = no cap)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	if err := validatePostingConfig(cfg); err != nil {
		return err
	}

	dateRange, err := parseDateFlag(cmd, cfg)
	if err != nil {
		return err
	}
	maxPapers, _ := cmd.Flags().GetInt("max-papers")
	if maxPapers == 0 {
		maxPapers = cfg.Scrape.MaxPapers
	}

	pipeline, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return pipeline.Run(ctx, dateRange, maxPapers)
}

// parseDateFlag parses and validates the --date flag. A nil range means
// the feed URL is fetched as-is.
func parseDateFlag(cmd *cobra.Command, cfg types.Config) (*dateutil.DateRange, error) {
	dateArg, _ := cmd.Flags().GetString("date")
	if dateArg == "" {
		return nil, nil
	}

	rng, err := dateutil.ParseRange(dateArg)
	if err != nil {
		return nil, err
	}
	valid, warning := dateutil.Validate(rng, cfg.DateRange.MaxDays)
	if warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if !valid {
		return nil, fmt.Errorf("invalid date range %q", dateArg)
	}
	return &rng, nil
}

// newPipeline wires the stages from the configuration. The returned cleanup
// closes the posted-papers store.
func newPipeline(cfg types.Config) (*digest.Pipeline, func(), error) {
	w := os.Stdout
	httpClient := &http.Client{Timeout: cfg.Scrape.Timeout}

	fetcher := arxiv.NewClient(httpClient, cfg.Scrape.UserAgent, w)
	images := imagecache.New(cfg.Scrape.CacheDir, httpClient, cfg.Scrape.UserAgent, w)
	scraper := scrape.New(cfg.Scrape, fetcher, images, w)

	llmClient, err := llm.New(cfg.LLM, httpClient, w)
	if err != nil {
		return nil, nil, err
	}
	slackClient := slack.New(cfg.Slack, httpClient, w)

	var store digest.PostedStore
	cleanup := func() {}
	if cfg.SeenDB != "" {
		s, err := seen.Open(cfg.SeenDB)
		if err != nil {
			return nil, nil, fmt.Errorf("opening posted-papers store: %w", err)
		}
		store = s
		cleanup = func() { s.Close() }
	}

	pipeline := digest.New(cfg, scraper, llmClient, slackClient, store, images, w)
	return pipeline, cleanup, nil
}
