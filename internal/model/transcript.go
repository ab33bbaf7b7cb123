package model

import "time"

// TranscriptSegment is one timed caption span
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the transcript step's artifact
type Transcript struct {
	Text        string              `json:"text"`
	Segments    []TranscriptSegment `json:"segments,omitempty"`
	Language    string              `json:"language,omitempty"`
	VideoID     string              `json:"video_id"`
	VideoTitle  string              `json:"video_title,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// SegmentRef points a generated item back at its source transcript span
type SegmentRef struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	MatchedText string  `json:"matched_text"`
	Overlap     float64 `json:"overlap"`
}
