// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm enriches assembled papers with translated abstracts and
// per-section summaries through a generative-model API.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/pemistahl/lingua-go"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

// Backend abstracts the generative-model API so tests can supply a mock.
// Each implementation handles one prompt and returns the completion text.
type Backend interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

const (
	translateMaxTokens = 1000
	summaryMaxTokens   = 500
	captionMaxTokens   = 300

	// Context sizes for the summary prompt.
	summaryAuthorLimit   = 5
	summaryAbstractLimit = 500
	summaryContentLimit  = 3000
)

var translatePromptTmpl = template.Must(template.New("translate").Parse(`Translate the following academic paper abstract to {{.Language}}.
Keep technical terms and proper nouns in English with explanations in {{.Language}}.
Use formal academic tone.

Abstract:
{{.Text}}

Translation:`))

var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Paper Title: {{.Title}}
Authors: {{.Authors}}
Abstract: {{.Abstract}}...

{{if .Content}}Full Content (excerpt):
{{.Content}}...

{{end}}{{.SectionPrompt}}

Answer in {{.Language}}. {{.CustomInstructions}}

Maximum length: {{.MaxLength}} characters.

Answer:`))

var captionPromptTmpl = template.Must(template.New("caption").Parse(`Translate the following {{.Context}} to {{.Language}}.
Keep technical terms in English with explanations.

Text: {{.Text}}

Translation:`))

// Client drives one provider backend for a whole digest run. Per-operation
// failures degrade to the untranslated or unsummarized original; they never
// fail the paper.
type Client struct {
	cfg      types.LLMConfig
	backend  Backend
	http     *http.Client
	detector lingua.LanguageDetector
	w        io.Writer
}

// New creates a Client for the configured provider ("anthropic" or
// "openai"). httpClient is used both for the provider API and for fetching
// paper content.
func New(cfg types.LLMConfig, httpClient *http.Client, w io.Writer) (*Client, error) {
	var backend Backend
	switch cfg.Provider {
	case "anthropic":
		backend = &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: httpClient}
	case "openai":
		backend = &OpenAIBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: httpClient}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	return NewWithBackend(cfg, backend, httpClient, w), nil
}

// NewWithBackend creates a Client around an explicit backend.
func NewWithBackend(cfg types.LLMConfig, backend Backend, httpClient *http.Client, w io.Writer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if w == nil {
		w = io.Discard
	}
	return &Client{
		cfg:      cfg,
		backend:  backend,
		http:     httpClient,
		detector: lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
		w:        w,
	}
}

// ProcessPaper fills the externally-supplied fields of one paper: the
// translated abstract, one summary per configured section, and translated
// figure captions. The paper is mutated in place.
func (c *Client) ProcessPaper(ctx context.Context, paper *types.Paper) {
	if paper.Abstract != "" {
		paper.TranslatedAbstract = c.translateAbstract(ctx, paper.Abstract)
	}

	content := c.paperContent(ctx, paper)

	if len(c.cfg.Sections) > 0 && paper.Summaries == nil {
		paper.Summaries = make(map[string]string, len(c.cfg.Sections))
	}
	for _, sec := range c.cfg.Sections {
		paper.Summaries[sec.Name] = c.generateSummary(ctx, paper, sec, content)
	}

	for i := range paper.TeaserFigures {
		fig := &paper.TeaserFigures[i]
		// Synthesized placeholder captions carry no text worth translating.
		if fig.Caption == "" || strings.HasPrefix(fig.Caption, "Figure ") {
			continue
		}
		fig.Caption = c.translateCaption(ctx, fig.Caption)
	}
}

// translateAbstract returns the abstract in the target language, or the
// original text when translation fails or is unnecessary.
func (c *Client) translateAbstract(ctx context.Context, abstract string) string {
	if c.alreadyInTargetLanguage(abstract) {
		fmt.Fprintf(c.w, "abstract already in %s, skipping translation\n", c.cfg.Language)
		return abstract
	}

	prompt, err := renderTemplate(translatePromptTmpl, map[string]any{
		"Language": c.cfg.Language,
		"Text":     abstract,
	})
	if err != nil {
		fmt.Fprintf(c.w, "warning: rendering translation prompt: %v\n", err)
		return abstract
	}

	result, err := c.callWithRetry(ctx, prompt, translateMaxTokens)
	if err != nil {
		fmt.Fprintf(c.w, "warning: abstract translation failed: %v\n", err)
		return abstract
	}
	return result
}

// generateSummary produces one section summary, falling back to a marker
// string on failure so the digest still shows which section broke.
func (c *Client) generateSummary(ctx context.Context, paper *types.Paper, sec types.SummarySection, content string) string {
	authors := paper.Authors
	if len(authors) > summaryAuthorLimit {
		authors = authors[:summaryAuthorLimit]
	}

	prompt, err := renderTemplate(summaryPromptTmpl, map[string]any{
		"Title":              paper.Title,
		"Authors":            strings.Join(authors, ", "),
		"Abstract":           truncateRunes(paper.Abstract, summaryAbstractLimit),
		"Content":            truncateRunes(content, summaryContentLimit),
		"SectionPrompt":      sec.Prompt,
		"Language":           c.cfg.Language,
		"CustomInstructions": c.cfg.CustomInstructions,
		"MaxLength":          c.cfg.MaxSummaryLength,
	})
	if err != nil {
		fmt.Fprintf(c.w, "warning: rendering summary prompt for %s: %v\n", sec.Name, err)
		return ""
	}

	result, err := c.callWithRetry(ctx, prompt, summaryMaxTokens)
	if err != nil {
		fmt.Fprintf(c.w, "warning: summary %s failed for %q: %v\n", sec.Name, paper.Title, err)
		return fmt.Sprintf("[error generating summary: %v]", err)
	}
	return result
}

// translateCaption translates a figure caption, keeping the original on
// failure.
func (c *Client) translateCaption(ctx context.Context, caption string) string {
	prompt, err := renderTemplate(captionPromptTmpl, map[string]any{
		"Context":  "image caption",
		"Language": c.cfg.Language,
		"Text":     caption,
	})
	if err != nil {
		return caption
	}
	result, err := c.callWithRetry(ctx, prompt, captionMaxTokens)
	if err != nil {
		fmt.Fprintf(c.w, "warning: caption translation failed: %v\n", err)
		return caption
	}
	return result
}

// alreadyInTargetLanguage reports whether text is detected as the
// configured target language, making a translation call pointless. The
// configured language may be a full name ("Japanese") or an ISO 639
// code ("ja", "jpn").
func (c *Client) alreadyInTargetLanguage(text string) bool {
	if c.detector == nil || c.cfg.Language == "" {
		return false
	}
	lang, ok := c.detector.DetectLanguageOf(text)
	if !ok {
		return false
	}
	target := c.cfg.Language
	return strings.EqualFold(lang.String(), target) ||
		strings.EqualFold(lang.IsoCode639_1().String(), target) ||
		strings.EqualFold(lang.IsoCode639_3().String(), target)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff.
func (c *Client) callWithRetry(ctx context.Context, prompt string, maxTokens int) (string, error) {
	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := c.backend.Complete(ctx, prompt, maxTokens)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
