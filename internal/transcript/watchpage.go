package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mlindgren/capsuled/internal/model"
	"golang.org/x/net/html"
)

// WatchPageClient scrapes basic metadata from a video's watch page. It is
// the fallback when no YouTube API key is configured.
type WatchPageClient struct {
	client *http.Client
}

// NewWatchPageClient creates a new watch-page scraper
func NewWatchPageClient() *WatchPageClient {
	return &WatchPageClient{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Fetch retrieves title and description via the page's Open Graph tags
func (c *WatchPageClient) Fetch(ctx context.Context, videoID string) (*model.VideoMetadata, error) {
	watchURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)

	req, err := http.NewRequestWithContext(ctx, "GET", watchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Capsuled/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	// Limit reading to 1MB
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := &model.VideoMetadata{
		VideoID: videoID,
		URL:     watchURL,
	}
	extractOpenGraph(doc, meta)

	if meta.Title == "" {
		return nil, fmt.Errorf("no metadata found on watch page")
	}

	return meta, nil
}

// extractOpenGraph walks the HTML tree collecting og:title and og:description
func extractOpenGraph(n *html.Node, meta *model.VideoMetadata) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if n.FirstChild != nil && meta.Title == "" {
				meta.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "meta":
			var property, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "property":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}

			switch property {
			case "og:title":
				if content != "" {
					meta.Title = content
				}
			case "og:description":
				if content != "" {
					meta.Description = truncateDescription(content)
				}
			}
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		extractOpenGraph(child, meta)
	}
}
