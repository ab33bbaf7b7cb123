package model

import "time"

// NotesStyle selects how the organizer orders sections
type NotesStyle string

const (
	NotesHierarchical  NotesStyle = "hierarchical"
	NotesTopical       NotesStyle = "topical"
	NotesByDifficulty  NotesStyle = "difficulty-based"
	NotesChronological NotesStyle = "chronological"
)

// SectionType classifies a note section's role in the document
type SectionType string

const (
	SectionIntroduction SectionType = "introduction"
	SectionMainContent  SectionType = "main-content"
	SectionConclusion   SectionType = "conclusion"
)

// SectionDifficulty follows the beginner < intermediate < advanced ordering
type SectionDifficulty string

const (
	SectionBeginner     SectionDifficulty = "beginner"
	SectionIntermediate SectionDifficulty = "intermediate"
	SectionAdvanced     SectionDifficulty = "advanced"
)

// NoteSection is one organized unit of the notes artifact
type NoteSection struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Level      int               `json:"level"`
	Type       SectionType       `json:"type"`
	KeyPoints  []string          `json:"key_points,omitempty"`
	Concepts   []string          `json:"concepts,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Difficulty SectionDifficulty `json:"difficulty,omitempty"`
	Importance float64           `json:"importance,omitempty"`

	Timestamp *SegmentRef `json:"timestamp,omitempty"`
}

// NotesStructure summarizes the section layout
type NotesStructure struct {
	SectionCount  int  `json:"section_count"`
	HasIntro      bool `json:"has_intro"`
	HasConclusion bool `json:"has_conclusion"`
	MaxLevel      int  `json:"max_level"`
}

// NotesMetadata carries document-level derived values
type NotesMetadata struct {
	WordCount        int               `json:"word_count"`
	ReadingTimeMins  int               `json:"reading_time_mins"`
	MainTopics       []string          `json:"main_topics,omitempty"`
	KeyTerms         []string          `json:"key_terms,omitempty"`
	Difficulty       SectionDifficulty `json:"difficulty,omitempty"`
}

// NotesCategorization classifies the notes for browsing
type NotesCategorization struct {
	PrimaryCategory   string   `json:"primary_category,omitempty"`
	SecondaryCategory string   `json:"secondary_category,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Subjects          []string `json:"subjects,omitempty"`
}

// NotesSearchIndex is precomputed at generation time for SearchNotes
type NotesSearchIndex struct {
	Keywords []string            `json:"keywords,omitempty"`
	Phrases  []string            `json:"phrases,omitempty"`
	Entities map[string][]string `json:"entities,omitempty"`
}

// OrganizedNotes is the notes organizer's artifact
type OrganizedNotes struct {
	Sections       []NoteSection       `json:"sections"`
	Style          NotesStyle          `json:"style"`
	Structure      NotesStructure      `json:"structure"`
	Metadata       NotesMetadata       `json:"metadata"`
	Categorization NotesCategorization `json:"categorization"`
	SearchIndex    NotesSearchIndex    `json:"search_index"`

	VideoID    string `json:"video_id"`
	VideoTitle string `json:"video_title,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// NotesSearchHit is one scored section returned by SearchNotes
type NotesSearchHit struct {
	SectionIndex   int     `json:"section_index"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
	Snippet        string  `json:"snippet,omitempty"`
}
