// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slack posts assembled papers to a Slack channel. Each paper
// becomes one main message with metadata blocks, followed by thread
// replies carrying the generated summaries and teaser figures.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdiddy/scholar-digest/internal/httputil"
	"github.com/pdiddy/scholar-digest/pkg/types"
)

// apiBase is the Slack Web API root. Tests point it at an httptest server.
var apiBase = "https://slack.com/api"

const maxUploadTitle = 100

// Client posts digests through the Slack Web API using a bot token.
type Client struct {
	cfg  types.SlackConfig
	http *http.Client
	w    io.Writer
}

// New returns a Client posting to the channel named in cfg. A nil
// httpClient falls back to http.DefaultClient; a nil w discards progress.
func New(cfg types.SlackConfig, httpClient *http.Client, w io.Writer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if w == nil {
		w = io.Discard
	}
	return &Client{cfg: cfg, http: httpClient, w: w}
}

// PostPaper posts one paper: the main message, then summaries and teaser
// figures as thread replies. A failed main message is returned as an error;
// failures on individual thread items are logged and swallowed so one bad
// figure never loses the rest of the post.
func (c *Client) PostPaper(ctx context.Context, paper *types.Paper) error {
	fmt.Fprintf(c.w, "posting to Slack: %s\n", truncateRunes(paper.Title, 50))

	threadTS, err := c.postMessage(ctx, messagePayload{
		Channel: c.cfg.ChannelID,
		Blocks:  buildMainBlocks(paper, c.cfg.PostElements),
		Text:    fmt.Sprintf("New paper: %s", paper.Title),
	})
	if err != nil {
		return fmt.Errorf("posting main message: %w", err)
	}

	if len(paper.Summaries) > 0 {
		c.postSummaries(ctx, threadTS, paper.Summaries)
	}
	if c.cfg.PostElements.TeaserFigures && len(paper.TeaserFigures) > 0 {
		c.postFigures(ctx, threadTS, paper.TeaserFigures)
	}
	return nil
}

// AuthTest verifies the token and returns the bot user name.
func (c *Client) AuthTest(ctx context.Context) (string, error) {
	var out struct {
		User string `json:"user"`
	}
	if err := c.callJSON(ctx, "auth.test", struct{}{}, &out); err != nil {
		return "", err
	}
	return out.User, nil
}

func (c *Client) postSummaries(ctx context.Context, threadTS string, summaries map[string]string) {
	// Map iteration order is unstable; post sections in name order so
	// repeated runs produce identical threads.
	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		_, err := c.postMessage(ctx, messagePayload{
			Channel:  c.cfg.ChannelID,
			ThreadTS: threadTS,
			Text:     fmt.Sprintf("*%s*\n%s", name, summaries[name]),
		})
		if err != nil {
			fmt.Fprintf(c.w, "warning: posting summary %s: %v\n", name, err)
		}
	}
}

func (c *Client) postFigures(ctx context.Context, threadTS string, figures []types.TeaserFigure) {
	unique := dedupFigures(figures)
	fmt.Fprintf(c.w, "posting %d unique figures (filtered from %d)\n", len(unique), len(figures))

	for i, fig := range unique {
		caption := fig.Caption
		if caption == "" {
			caption = fmt.Sprintf("Figure %d", i+1)
		}

		var err error
		if fig.LocalPath != "" && fileExists(fig.LocalPath) {
			err = c.uploadFile(ctx, threadTS, fig.LocalPath, caption)
		} else {
			// No cached file: fall back to a caption message carrying the
			// source URL so the figure is still reachable.
			_, err = c.postMessage(ctx, messagePayload{
				Channel:  c.cfg.ChannelID,
				ThreadTS: threadTS,
				Text:     fmt.Sprintf("*Figure %d*\n%s\n%s", i+1, fig.Caption, fig.ImageURL),
			})
		}
		if err != nil {
			fmt.Fprintf(c.w, "warning: posting figure %d: %v\n", i+1, err)
		}
	}
}

// dedupFigures drops figures already seen under the same local path or,
// when no file was cached, the same source URL.
func dedupFigures(figures []types.TeaserFigure) []types.TeaserFigure {
	seen := make(map[string]bool, len(figures))
	unique := figures[:0:0]
	for _, fig := range figures {
		id := fig.LocalPath
		if id == "" {
			id = fig.ImageURL
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, fig)
	}
	return unique
}

type messagePayload struct {
	Channel  string  `json:"channel"`
	ThreadTS string  `json:"thread_ts,omitempty"`
	Blocks   []block `json:"blocks,omitempty"`
	Text     string  `json:"text"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// postMessage calls chat.postMessage and returns the message timestamp,
// which doubles as the thread identifier for replies.
func (c *Client) postMessage(ctx context.Context, payload messagePayload) (string, error) {
	var out struct {
		TS string `json:"ts"`
	}
	if err := c.callJSON(ctx, "chat.postMessage", payload, &out); err != nil {
		return "", err
	}
	return out.TS, nil
}

func (c *Client) callJSON(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	return c.doAPI(ctx, req, method, out)
}

// uploadFile attaches a cached figure to the thread via files.upload.
func (c *Client) uploadFile(ctx context.Context, threadTS, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening figure: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("channels", c.cfg.ChannelID)
	mw.WriteField("thread_ts", threadTS)
	mw.WriteField("title", truncateRunes(caption, maxUploadTitle))
	mw.WriteField("initial_comment", caption)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("reading figure: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalizing upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/files.upload", &buf)
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	return c.doAPI(ctx, req, "files.upload", nil)
}

// doAPI executes a Web API request and checks both the HTTP status and the
// in-band ok flag Slack uses for application-level errors.
func (c *Client) doAPI(ctx context.Context, req *http.Request, method string, out any) error {
	resp, err := httputil.DoWithRetryLogged(ctx, c.http, req, 0, c.w)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", method, resp.StatusCode, string(raw))
	}

	var status apiResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !status.OK {
		return fmt.Errorf("%s failed: %s", method, status.Error)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", method, err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
