package linkpreview

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
)

// Provider builds link previews by fetching the target page and scraping its
// Open Graph tags. Strictly best effort: callers fall back to a
// domain-derived stub on any failure.
type Provider struct {
	client  *http.Client
	maxBody int64
}

func NewProvider(timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Provider{
		client:  &http.Client{Timeout: timeout},
		maxBody: 512 * 1024,
	}
}

var (
	ogTagPattern = regexp.MustCompile(`<meta[^>]+property=["']og:(title|description|image|type)["'][^>]+content=["']([^"']*)["']`)
	titlePattern = regexp.MustCompile(`<title[^>]*>([^<]+)</title>`)
)

// Fetch returns the preview for url, or a PREVIEW_UNAVAILABLE error. It never
// panics on malformed pages; missing tags simply leave fields empty.
func (p *Provider) Fetch(ctx context.Context, url string) (*entity.LinkPreview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.PreviewUnavailable(url, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.PreviewUnavailable(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.PreviewUnavailable(url, nil)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return nil, errors.PreviewUnavailable(url, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		return nil, errors.PreviewUnavailable(url, err)
	}

	preview := entity.StubPreview(url)
	for _, match := range ogTagPattern.FindAllStringSubmatch(string(body), -1) {
		switch match[1] {
		case "title":
			preview.Title = match[2]
		case "description":
			preview.Description = match[2]
		case "image":
			preview.Image = match[2]
		case "type":
			preview.Type = match[2]
		}
	}
	if preview.Title == preview.Domain {
		if m := titlePattern.FindStringSubmatch(string(body)); m != nil {
			preview.Title = strings.TrimSpace(m[1])
		}
	}

	return preview, nil
}
