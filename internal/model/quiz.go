package model

import "time"

// QuesType represents a quiz question format
type QuesType string

const (
	QuesMultipleChoice QuesType = "multiple-choice"
	QuesTrueFalse      QuesType = "true-false"
	QuesShortAnswer    QuesType = "short-answer"
	QuesFillBlank      QuesType = "fill-blank"
)

// Bounds enforced on every quiz question at construction time
const (
	MinQuestionPoints = 1
	MaxQuestionPoints = 5
	MinTimeLimit      = 15
	MaxTimeLimit      = 300
	MaxOptions        = 4
	MaxHints          = 3
)

// QuizQuestion is one element of the quiz artifact
type QuizQuestion struct {
	ID          string     `json:"id"`
	Type        QuesType   `json:"type"`
	Question    string     `json:"question"`
	Options     []string   `json:"options,omitempty"`
	Answer      string     `json:"answer"`
	Explanation string     `json:"explanation,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Points      int        `json:"points"`
	TimeLimit   int        `json:"time_limit"`
	Tags        []string   `json:"tags,omitempty"`
	Category    string     `json:"category,omitempty"`
	Hints       []string   `json:"hints,omitempty"`

	Source *SegmentRef `json:"source,omitempty"`
}

// AdaptiveSettings carries the optional adaptive-difficulty configuration
type AdaptiveSettings struct {
	Enabled         bool       `json:"enabled"`
	StartDifficulty Difficulty `json:"start_difficulty"`
	StepUpAfter     int        `json:"step_up_after"`
	StepDownAfter   int        `json:"step_down_after"`
}

// QuizQualitySummary reports validation outcomes across the whole quiz
type QuizQualitySummary struct {
	Validated int      `json:"validated"`
	Dropped   int      `json:"dropped"`
	Issues    []string `json:"issues,omitempty"`
}

// QuizResult is the quiz generator's artifact
type QuizResult struct {
	Questions              []QuizQuestion     `json:"questions"`
	TotalPoints            int                `json:"total_points"`
	TotalTimeLimit         int                `json:"total_time_limit"`
	TypeDistribution       map[QuesType]int   `json:"type_distribution"`
	DifficultyDistribution map[Difficulty]int `json:"difficulty_distribution"`
	Categories             []string           `json:"categories,omitempty"`
	Adaptive               *AdaptiveSettings  `json:"adaptive,omitempty"`

	VideoID    string `json:"video_id"`
	VideoTitle string `json:"video_title,omitempty"`

	QualityValidation QuizQualitySummary `json:"quality_validation"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
