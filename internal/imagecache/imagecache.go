// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imagecache stores downloaded teaser figures under stable,
// collision-free filenames for the lifetime of one digest run.
package imagecache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

// defaultBaseURL resolves site-relative image sources.
const defaultBaseURL = "https://scholar-inbox.com"

// Cache downloads figures into Dir. Filenames combine the paper identifier,
// the figure index, and a short URL hash, so two figures of one paper and
// same-index figures of different papers never collide. Files are always
// re-downloaded and overwritten; a previous run may have left stale content
// under the same name.
type Cache struct {
	Dir       string
	BaseURL   string
	UserAgent string

	client *http.Client
	w      io.Writer
}

// New creates a Cache writing into dir. The directory is created lazily on
// first download.
func New(dir string, client *http.Client, userAgent string, w io.Writer) *Cache {
	if client == nil {
		client = http.DefaultClient
	}
	if w == nil {
		w = io.Discard
	}
	return &Cache{
		Dir:       dir,
		BaseURL:   defaultBaseURL,
		UserAgent: userAgent,
		client:    client,
		w:         w,
	}
}

// Download fetches imageURL into the cache and returns the local path.
func (c *Cache) Download(ctx context.Context, imageURL, paperID string, index int) (string, error) {
	resolved := c.resolveURL(imageURL)
	destPath := filepath.Join(c.Dir, c.filename(resolved, paperID, index))

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, resolved)
	}

	// Write to a temp file and rename, so an interrupted download never
	// leaves a truncated file under the final name.
	tmpFile, err := os.CreateTemp(c.Dir, ".figure-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

// Cleanup deletes every downloaded figure referenced by papers. Missing
// files are silently tolerated; other deletion failures are logged.
func (c *Cache) Cleanup(papers []*types.Paper) {
	for _, paper := range papers {
		for _, fig := range paper.TeaserFigures {
			if fig.LocalPath == "" {
				continue
			}
			if err := os.Remove(fig.LocalPath); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(c.w, "warning: deleting %s: %v\n", fig.LocalPath, err)
			}
		}
	}
}

// resolveURL completes protocol-relative and site-relative image sources.
func (c *Cache) resolveURL(imageURL string) string {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	switch {
	case strings.HasPrefix(imageURL, "//"):
		return "https:" + imageURL
	case strings.HasPrefix(imageURL, "/"):
		return base + imageURL
	}
	return imageURL
}

// filename builds the cache filename for one figure.
func (c *Cache) filename(resolvedURL, paperID string, index int) string {
	hash := sha256.Sum256([]byte(resolvedURL))
	return fmt.Sprintf("%s_fig_%d_%x%s", paperID, index, hash[:4], extensionOf(resolvedURL))
}

// extensionOf guesses the image extension from the URL, defaulting to jpg.
func extensionOf(url string) string {
	for _, ext := range []string{".png", ".gif", ".webp"} {
		if strings.Contains(url, ext) {
			return ext
		}
	}
	return ".jpg"
}
