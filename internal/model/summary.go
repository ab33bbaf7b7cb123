package model

import "time"

// SummaryResult is the summary generator's artifact
type SummaryResult struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	Topics      []string `json:"topics"`
	ReadingTime int      `json:"reading_time"`
	Confidence  float64  `json:"confidence"`
	Language    string   `json:"language,omitempty"`

	VideoID    string `json:"video_id"`
	VideoTitle string `json:"video_title,omitempty"`

	QualityValidation *QualityValidation `json:"quality_validation,omitempty"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
