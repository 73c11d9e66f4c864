package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var ErrMarkdownUpstream = errors.New("failed to fetch markdown content")

// fetchLimit caps how much of the upstream document is read.
const fetchLimit = 2 << 20 // 2 MiB

// markdownRenderer is configured once and reused; goldmark instances are
// safe for concurrent use.
var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// MarkdownService fetches an external Markdown document and optionally
// renders it to HTML.
type MarkdownService struct {
	client *http.Client
}

// NewMarkdownService creates a MarkdownService. A nil client gets a
// default with a sane timeout.
func NewMarkdownService(client *http.Client) *MarkdownService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &MarkdownService{client: client}
}

// Fetch retrieves the raw Markdown document at the given URL. GitHub
// blob URLs are converted to their raw-content equivalents first.
func (s *MarkdownService) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ConvertToRawURL(url), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownUpstream, err)
	}
	req.Header.Set("User-Agent", "N-Board-App")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrMarkdownUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchLimit))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMarkdownUpstream, err)
	}
	return string(body), nil
}

// RenderHTML renders Markdown to HTML with GFM extensions.
func (s *MarkdownService) RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// ConvertToRawURL rewrites a GitHub blob URL to the raw content host.
// Other URLs pass through unchanged.
//
//	https://github.com/user/repo/blob/branch/file.md
//	-> https://raw.githubusercontent.com/user/repo/branch/file.md
func ConvertToRawURL(url string) string {
	if strings.Contains(url, "raw.githubusercontent.com") {
		return url
	}
	if strings.Contains(url, "github.com") {
		url = strings.Replace(url, "github.com", "raw.githubusercontent.com", 1)
		url = strings.Replace(url, "/blob/", "/", 1)
	}
	return url
}
