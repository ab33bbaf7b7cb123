package model

import "time"

// CapsuleStatus represents the overall state of a learning capsule
type CapsuleStatus string

const (
	CapsuleProcessing CapsuleStatus = "processing"
	CapsuleReady      CapsuleStatus = "ready"
	CapsuleError      CapsuleStatus = "error"
)

// Terminal reports whether a capsule status can no longer change
func (s CapsuleStatus) Terminal() bool {
	return s == CapsuleReady || s == CapsuleError
}

// StepStatus represents the status of one pipeline step
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	StepSkipped    StepStatus = "skipped"
)

// Terminal reports whether a step has finished, one way or another
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepFailed || s == StepSkipped
}

// Pipeline step names
const (
	StepValidation = "validation"
	StepTranscript = "transcript"
	StepSummary    = "summary"
	StepFlashcards = "flashcards"
	StepQuiz       = "quiz"
	StepMindMap    = "mindMap"
	StepNotes      = "notes"
)

// GenerationSteps lists the content-generation steps that run after the
// transcript is available; each writes exactly one learning-content key.
var GenerationSteps = []string{StepSummary, StepFlashcards, StepQuiz, StepMindMap, StepNotes}

// Artifact names the keys of LearningContent
type Artifact string

const (
	ArtifactTranscript Artifact = "transcript"
	ArtifactSummary    Artifact = "summary"
	ArtifactFlashcards Artifact = "flashcards"
	ArtifactQuiz       Artifact = "quiz"
	ArtifactMindMap    Artifact = "mindMap"
	ArtifactNotes      Artifact = "notes"
)

// LearningContent holds the generated artifacts of one capsule. Keys are
// append-only: a generation step only ever adds or overwrites its own key.
type LearningContent struct {
	Transcript *Transcript     `json:"transcript,omitempty"`
	Summary    *SummaryResult  `json:"summary,omitempty"`
	Flashcards *FlashcardSet   `json:"flashcards,omitempty"`
	Quiz       *QuizResult     `json:"quiz,omitempty"`
	MindMap    *MindMap        `json:"mindMap,omitempty"`
	Notes      *OrganizedNotes `json:"notes,omitempty"`
}

// ProcessingStats aggregates per-step outcomes at finalization time
type ProcessingStats struct {
	TotalSteps     int   `json:"total_steps"`
	CompletedSteps int   `json:"completed_steps"`
	FailedSteps    int   `json:"failed_steps"`
	SkippedSteps   int   `json:"skipped_steps"`
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

// StepError records the failure that moved a capsule to the error state
type StepError struct {
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Capsule is the persisted aggregate for one processed video
type Capsule struct {
	UserID    string `json:"user_id"`
	CapsuleID string `json:"capsule_id"`

	VideoID       string `json:"video_id"`
	VideoURL      string `json:"video_url"`
	NormalizedURL string `json:"normalized_url"`
	Title         string `json:"title,omitempty"`

	Status           CapsuleStatus         `json:"status"`
	ProcessingStatus map[string]StepStatus `json:"processing_status"`
	LearningContent  LearningContent       `json:"learning_content"`
	ProcessingStats  *ProcessingStats      `json:"processing_stats,omitempty"`
	Error            *StepError            `json:"error,omitempty"`

	Options GenerationOptions `json:"options"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// GenerationOptions carries the per-submission knobs for the generators.
// IncludeImages is accepted for contract compatibility; the text-only
// generators ignore it.
type GenerationOptions struct {
	SummaryLength    string     `json:"summary_length,omitempty"`
	QuestionCount    int        `json:"question_count,omitempty"`
	QuizDifficulty   Difficulty `json:"quiz_difficulty,omitempty"`
	QuestionTypes    []QuesType `json:"question_types,omitempty"`
	QuizTimeLimit    int        `json:"quiz_time_limit,omitempty"`
	AdaptiveQuiz     bool       `json:"adaptive_quiz,omitempty"`
	MaxCards         int        `json:"max_cards,omitempty"`
	CardDifficulty   Difficulty `json:"card_difficulty,omitempty"`
	CardTypes        []CardType `json:"card_types,omitempty"`
	AvoidDuplicates  bool       `json:"avoid_duplicates,omitempty"`
	IncludeImages    bool       `json:"include_images,omitempty"`
	FocusAreas       []string   `json:"focus_areas,omitempty"`
	Objectives       []string   `json:"objectives,omitempty"`
	NotesStyle       NotesStyle `json:"notes_style,omitempty"`
	NotesDetail      string     `json:"notes_detail,omitempty"`
	MaxSections      int        `json:"max_sections,omitempty"`
	MinSectionLength int        `json:"min_section_length,omitempty"`
	IncludeTimestamp bool       `json:"include_timestamps,omitempty"`
}

// Difficulty levels shared by quiz questions and flashcards
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

// QualityValidation is the heuristic score attached to a generated artifact
type QualityValidation struct {
	Score           float64  `json:"score"`
	Passed          bool     `json:"passed"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// VideoMetadata is the validation step's output
type VideoMetadata struct {
	VideoID      string     `json:"video_id"`
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelTitle string     `json:"channel_title,omitempty"`
	Duration     int        `json:"duration_seconds,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}
