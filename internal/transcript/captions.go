package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mlindgren/capsuled/internal/model"
)

// CaptionClient fetches a video's caption track from the timedtext endpoint
type CaptionClient struct {
	client *http.Client
}

// NewCaptionClient creates a new caption client
func NewCaptionClient() *CaptionClient {
	return &CaptionClient{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Fetch retrieves and parses the caption track for a video. Language
// defaults to English when empty.
func (c *CaptionClient) Fetch(ctx context.Context, videoID, language string) (*model.Transcript, error) {
	if language == "" {
		language = "en"
	}

	captionURL := fmt.Sprintf(
		"https://www.youtube.com/api/timedtext?v=%s&lang=%s",
		url.QueryEscape(videoID),
		url.QueryEscape(language),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", captionURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read captions: %w", err)
	}

	transcript, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}
	if transcript.Text == "" {
		return nil, fmt.Errorf("no caption track available")
	}

	transcript.VideoID = videoID
	transcript.Language = language
	transcript.GeneratedAt = time.Now().UTC()

	return transcript, nil
}

type timedText struct {
	Texts []timedTextEntry `xml:"text"`
}

type timedTextEntry struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

func parseTimedText(data []byte) (*model.Transcript, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("failed to parse caption XML: %w", err)
	}

	var (
		segments []model.TranscriptSegment
		full     strings.Builder
	)
	for _, entry := range tt.Texts {
		text := strings.TrimSpace(html.UnescapeString(entry.Body))
		if text == "" {
			continue
		}

		segments = append(segments, model.TranscriptSegment{
			Start: entry.Start,
			End:   entry.Start + entry.Dur,
			Text:  text,
		})

		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(text)
	}

	return &model.Transcript{
		Text:     strings.ToValidUTF8(full.String(), ""),
		Segments: segments,
	}, nil
}
