// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig holds settings for the feed scraping stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// FeedURL is the personalized feed URL, including the access key.
	FeedURL string `json:"feed_url" yaml:"feed_url"`

	// MaxPapers caps the number of papers taken from one page (0 = no cap).
	// The cap is applied after extraction, not during it.
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// CacheDir is the directory for downloaded teaser figures.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// NavigationTimeout bounds page loads (default 90s).
	NavigationTimeout time.Duration `json:"navigation_timeout" yaml:"navigation_timeout"`

	// SelectorTimeout bounds individual element waits (default 10s).
	SelectorTimeout time.Duration `json:"selector_timeout" yaml:"selector_timeout"`

	// Headless controls whether the browser runs without a display.
	Headless bool `json:"headless" yaml:"headless"`

	// BrowserInstallCmd is an optional shell command run once when no
	// browser executable is found, before retrying the launch.
	BrowserInstallCmd string `json:"browser_install_cmd,omitempty" yaml:"browser_install_cmd,omitempty"`
}

// SummarySection names one LLM summary section and its prompt.
type SummarySection struct {
	Name   string `json:"name" yaml:"name"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// LLMConfig holds settings for the translation and summarization stage.
type LLMConfig struct {
	// Provider selects the API: "anthropic" or "openai".
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier for the selected provider.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Language is the target language code for translations (e.g. "ja").
	Language string `json:"language" yaml:"language"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// MaxSummaryLength caps each summary section, in characters.
	MaxSummaryLength int `json:"max_summary_length" yaml:"max_summary_length"`

	// CustomInstructions is appended to every summary prompt.
	CustomInstructions string `json:"custom_instructions,omitempty" yaml:"custom_instructions,omitempty"`

	// Sections lists the summary sections to generate, in order.
	Sections []SummarySection `json:"sections" yaml:"sections"`
}

// SlackPostElements toggles which paper fields appear in the posted digest.
type SlackPostElements struct {
	Title         bool `json:"title" yaml:"title"`
	Authors       bool `json:"authors" yaml:"authors"`
	Abstract      bool `json:"abstract" yaml:"abstract"`
	Relevance     bool `json:"paper_relevance" yaml:"paper_relevance"`
	Conference    bool `json:"conference" yaml:"conference"`
	SubmittedDate bool `json:"submitted_date" yaml:"submitted_date"`
	Categories    bool `json:"categories" yaml:"categories"`
	ArxivURL      bool `json:"arxiv_url" yaml:"arxiv_url"`
	GithubURL     bool `json:"github_url" yaml:"github_url"`
	TeaserFigures bool `json:"teaser_figures" yaml:"teaser_figures"`
}

// DefaultSlackPostElements returns the post-element toggles with everything on.
func DefaultSlackPostElements() SlackPostElements {
	return SlackPostElements{
		Title: true, Authors: true, Abstract: true, Relevance: true,
		Conference: true, SubmittedDate: true, Categories: true,
		ArxivURL: true, GithubURL: true, TeaserFigures: true,
	}
}

// SlackConfig holds settings for the digest posting stage.
type SlackConfig struct {
	// Token is the bot token.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// ChannelID is the target channel.
	ChannelID string `json:"channel_id" yaml:"channel_id"`

	// PostElements selects which fields the main message carries.
	PostElements SlackPostElements `json:"post_elements" yaml:"post_elements"`
}

// FilterConfig holds relevance filtering settings.
type FilterConfig struct {
	// SetThreshold enables filtering by relevance score.
	SetThreshold bool `json:"set_threshold" yaml:"set_threshold"`

	// RelevanceThreshold is the minimum score; papers without a relevance
	// signal are dropped when filtering is on.
	RelevanceThreshold int `json:"relevance_threshold" yaml:"relevance_threshold"`

	// RequireGithub keeps only papers with a code link.
	RequireGithub bool `json:"require_github" yaml:"require_github"`
}

// SortOrder selects how papers are ordered before posting.
type SortOrder string

const (
	SortRelevanceDesc SortOrder = "relevance_desc"
	SortRelevanceAsc  SortOrder = "relevance_asc"
	SortDateDesc      SortOrder = "date_desc"
	SortDateAsc       SortOrder = "date_asc"
	SortDOMOrder      SortOrder = "dom_order"
)

// ScheduleConfig holds settings for the periodic trigger.
type ScheduleConfig struct {
	// CheckTime is the daily run time as HH:MM.
	CheckTime string `json:"check_time" yaml:"check_time"`

	// WeekdaysOnly restricts runs to Monday through Friday.
	WeekdaysOnly bool `json:"weekdays_only" yaml:"weekdays_only"`
}

// DateRangeConfig bounds the --date flag.
type DateRangeConfig struct {
	// MaxDays is the largest accepted date range (default 30).
	MaxDays int `json:"max_days" yaml:"max_days"`
}

// Config groups all stage configurations.
type Config struct {
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Slack     SlackConfig     `json:"slack" yaml:"slack"`
	Filter    FilterConfig    `json:"filter" yaml:"filter"`
	Sort      SortOrder       `json:"sorting" yaml:"sorting"`
	Schedule  ScheduleConfig  `json:"schedule" yaml:"schedule"`
	DateRange DateRangeConfig `json:"date_range" yaml:"date_range"`

	// SeenDB is the directory holding the posted-papers database; empty
	// disables repost suppression.
	SeenDB string `json:"seen_db,omitempty" yaml:"seen_db,omitempty"`
}
