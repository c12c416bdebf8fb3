// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-digest/internal/secrets"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

const defaultUserAgent = "scholar-digest/0.1"

func setConfigDefaults() {
	viper.SetDefault("scrape.timeout", "60s")
	viper.SetDefault("scrape.cache_dir", "data/cache")
	viper.SetDefault("scrape.headless", true)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.language", "ja")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("llm.max_summary_length", 300)

	viper.SetDefault("sorting", "relevance_desc")
	viper.SetDefault("schedule.check_time", "12:00")
	viper.SetDefault("schedule.weekdays_only", true)
	viper.SetDefault("date_range.max_days", 30)
	viper.SetDefault("seen_db", "data")
}

// buildConfig assembles the full configuration from the config file,
// environment, and secrets directory. Credentials in the config file win
// over secrets.
func buildConfig() types.Config {
	setConfigDefaults()

	var cfg types.Config

	cfg.Scrape = types.ScrapeConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("scrape.timeout"),
			UserAgent: defaultUserAgent,
		},
		FeedURL:           viper.GetString("scrape.feed_url"),
		MaxPapers:         viper.GetInt("scrape.max_papers"),
		CacheDir:          viper.GetString("scrape.cache_dir"),
		NavigationTimeout: viper.GetDuration("scrape.navigation_timeout"),
		SelectorTimeout:   viper.GetDuration("scrape.selector_timeout"),
		Headless:          viper.GetBool("scrape.headless"),
		BrowserInstallCmd: viper.GetString("scrape.browser_install_cmd"),
	}
	if cfg.Scrape.FeedURL == "" {
		cfg.Scrape.FeedURL = secrets.Get(loadedSecrets, "feed-url")
	}

	cfg.LLM = types.LLMConfig{
		Provider:           viper.GetString("llm.provider"),
		Model:              viper.GetString("llm.model"),
		APIKey:             viper.GetString("llm.api_key"),
		Language:           viper.GetString("llm.language"),
		MaxRetries:         viper.GetInt("llm.max_retries"),
		MaxSummaryLength:   viper.GetInt("llm.max_summary_length"),
		CustomInstructions: viper.GetString("llm.custom_instructions"),
	}
	viper.UnmarshalKey("llm.sections", &cfg.LLM.Sections)
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = secrets.Get(loadedSecrets, providerKeyName(cfg.LLM.Provider))
	}

	cfg.Slack = types.SlackConfig{
		Token:        viper.GetString("slack.token"),
		ChannelID:    viper.GetString("slack.channel_id"),
		PostElements: postElements(),
	}
	if cfg.Slack.Token == "" {
		cfg.Slack.Token = secrets.Get(loadedSecrets, "slack-bot-token")
	}
	if cfg.Slack.ChannelID == "" {
		cfg.Slack.ChannelID = secrets.Get(loadedSecrets, "slack-channel-id")
	}

	cfg.Filter = types.FilterConfig{
		SetThreshold:       viper.GetBool("filter.set_threshold"),
		RelevanceThreshold: viper.GetInt("filter.relevance_threshold"),
		RequireGithub:      viper.GetBool("filter.require_github"),
	}
	cfg.Sort = types.SortOrder(viper.GetString("sorting"))
	cfg.Schedule = types.ScheduleConfig{
		CheckTime:    viper.GetString("schedule.check_time"),
		WeekdaysOnly: viper.GetBool("schedule.weekdays_only"),
	}
	cfg.DateRange = types.DateRangeConfig{
		MaxDays: viper.GetInt("date_range.max_days"),
	}
	cfg.SeenDB = viper.GetString("seen_db")

	return cfg
}

func providerKeyName(provider string) string {
	if provider == "openai" {
		return "openai-api-key"
	}
	return "anthropic-api-key"
}

// postElements starts from everything-on and applies only the toggles the
// config file actually sets.
func postElements() types.SlackPostElements {
	elems := types.DefaultSlackPostElements()
	set := func(key string, dst *bool) {
		full := "slack.post_elements." + key
		if viper.IsSet(full) {
			*dst = viper.GetBool(full)
		}
	}
	set("title", &elems.Title)
	set("authors", &elems.Authors)
	set("abstract", &elems.Abstract)
	set("paper_relevance", &elems.Relevance)
	set("conference", &elems.Conference)
	set("submitted_date", &elems.SubmittedDate)
	set("categories", &elems.Categories)
	set("arxiv_url", &elems.ArxivURL)
	set("github_url", &elems.GithubURL)
	set("teaser_figures", &elems.TeaserFigures)
	return elems
}

// validatePostingConfig checks the settings the run and watch commands
// cannot work without.
func validatePostingConfig(cfg types.Config) error {
	if cfg.Scrape.FeedURL == "" {
		return fmt.Errorf("no feed URL configured: set scrape.feed_url or provide .secrets/feed-url")
	}
	if cfg.Slack.Token == "" {
		return fmt.Errorf("no Slack token configured: set slack.token or provide .secrets/slack-bot-token")
	}
	if cfg.Slack.ChannelID == "" {
		return fmt.Errorf("no Slack channel configured: set slack.channel_id or provide .secrets/slack-channel-id")
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no LLM API key configured: set llm.api_key or provide .secrets/%s", providerKeyName(cfg.LLM.Provider))
	}
	return nil
}
