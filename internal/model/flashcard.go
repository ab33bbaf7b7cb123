package model

import "time"

// CardType classifies what a flashcard tests
type CardType string

const (
	CardDefinition  CardType = "definition"
	CardConcept     CardType = "concept"
	CardApplication CardType = "application"
	CardFact        CardType = "fact"
)

// CardQuality scores a flashcard 0-10 on each axis. Overall is the mean.
type CardQuality struct {
	Clarity    float64 `json:"clarity"`
	Accuracy   float64 `json:"accuracy"`
	Difficulty float64 `json:"difficulty"`
	Engagement float64 `json:"engagement"`
	Overall    float64 `json:"overall"`
}

// PerformanceRecord is one review of a flashcard by the user
type PerformanceRecord struct {
	ReviewedAt time.Time `json:"reviewed_at"`
	Quality    int       `json:"quality"` // 0-5 recall rating
	Interval   int       `json:"interval"`
}

// ReviewSchedule is the SM-2 spaced-repetition state of a flashcard
type ReviewSchedule struct {
	Interval    int                 `json:"interval"` // days
	Repetitions int                 `json:"repetitions"`
	EaseFactor  float64             `json:"ease_factor"`
	NextReview  time.Time           `json:"next_review"`
	History     []PerformanceRecord `json:"history,omitempty"`
}

// Flashcard is one element of the flashcard artifact
type Flashcard struct {
	ID         string         `json:"id"`
	Front      string         `json:"front"`
	Back       string         `json:"back"`
	Type       CardType       `json:"type"`
	Difficulty Difficulty     `json:"difficulty"`
	Category   string         `json:"category,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Quality    CardQuality    `json:"quality"`
	Schedule   ReviewSchedule `json:"schedule"`
}

// CardGroupings organizes card IDs along the three browse axes
type CardGroupings struct {
	ByDifficulty map[Difficulty][]string `json:"by_difficulty"`
	ByType       map[CardType][]string   `json:"by_type"`
	ByCategory   map[string][]string     `json:"by_category"`
}

// FlashcardSetMetadata aggregates counts and estimates over a card set
type FlashcardSetMetadata struct {
	TotalCards             int                `json:"total_cards"`
	DifficultyDistribution map[Difficulty]int `json:"difficulty_distribution"`
	TypeDistribution       map[CardType]int   `json:"type_distribution"`
	AverageQuality         float64            `json:"average_quality"`
	EstStudyMinutes        int                `json:"est_study_minutes"`
	DroppedLowQuality      int                `json:"dropped_low_quality"`
	DroppedDuplicates      int                `json:"dropped_duplicates"`
}

// FlashcardAnalytics scores the set as a whole, each axis 0-1
type FlashcardAnalytics struct {
	ConceptCoverage float64 `json:"concept_coverage"`
	Redundancy      float64 `json:"redundancy"`
	Coherence       float64 `json:"coherence"`
	Completeness    float64 `json:"completeness"`
}

// FlashcardSet is the flashcard generator's artifact
type FlashcardSet struct {
	Cards         []Flashcard          `json:"cards"`
	Groupings     CardGroupings        `json:"groupings"`
	StudySequence []string             `json:"study_sequence"`
	Metadata      FlashcardSetMetadata `json:"metadata"`
	Analytics     FlashcardAnalytics   `json:"analytics"`

	VideoID    string `json:"video_id"`
	VideoTitle string `json:"video_title,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
