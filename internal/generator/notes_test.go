package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
)

func TestFallbackNotesStructure(t *testing.T) {
	t.Parallel()

	notes := fallbackNotes(longTranscript(30), 80, 8)
	require.True(t, len(notes.Sections) >= 2)

	assert.Equal(t, model.SectionIntroduction, notes.Sections[0].Type)
	assert.Equal(t, "Introduction", notes.Sections[0].Title)
	last := notes.Sections[len(notes.Sections)-1]
	assert.Equal(t, model.SectionConclusion, last.Type)
	assert.Equal(t, "Conclusion", last.Title)
}

func TestOrderSectionsByDifficulty(t *testing.T) {
	t.Parallel()

	notes := &model.OrganizedNotes{Sections: []model.NoteSection{
		{Title: "Advanced", Difficulty: model.SectionAdvanced},
		{Title: "Beginner A", Difficulty: model.SectionBeginner},
		{Title: "Intermediate", Difficulty: model.SectionIntermediate},
		{Title: "Beginner B", Difficulty: model.SectionBeginner},
	}}

	orderSections(notes, model.NotesByDifficulty, nil)

	titles := sectionTitles(notes)
	assert.Equal(t, []string{"Beginner A", "Beginner B", "Intermediate", "Advanced"}, titles)
}

func TestOrderSectionsChronologicalUnmatchedSink(t *testing.T) {
	t.Parallel()

	segments := []model.TranscriptSegment{
		{Start: 0, End: 30, Text: "welcome everyone today covers replication basics and logs"},
		{Start: 30, End: 60, Text: "later sections explain snapshot transfer between followers"},
	}

	notes := &model.OrganizedNotes{Sections: []model.NoteSection{
		{Title: "Snapshots", Content: "snapshot transfer between followers happens later sections explain"},
		{Title: "Unrelated", Content: "completely different subject matter entirely elsewhere discussed"},
		{Title: "Basics", Content: "welcome everyone today covers replication basics and logs"},
	}}

	orderSections(notes, model.NotesChronological, segments)

	titles := sectionTitles(notes)
	assert.Equal(t, []string{"Basics", "Snapshots", "Unrelated"}, titles)
}

func TestOrderSectionsTopicalClustersSharedConcepts(t *testing.T) {
	t.Parallel()

	notes := &model.OrganizedNotes{Sections: []model.NoteSection{
		{Title: "A", Concepts: []string{"replication"}},
		{Title: "B", Concepts: []string{"elections"}},
		{Title: "C", Concepts: []string{"replication", "snapshots"}},
	}}

	orderSections(notes, model.NotesTopical, nil)

	titles := sectionTitles(notes)
	assert.Equal(t, []string{"A", "C", "B"}, titles)
}

func TestNotesDerivedMetadata(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeCompleter{err: errors.New("model unavailable")}

	o := NewNotesOrganizer(llm, nil, store)
	notes, err := o.Organize(context.Background(), &Request{
		UserID: "u1", CapsuleID: "c1",
		Transcript: longTranscript(30),
	})

	require.NoError(t, err)
	assert.Equal(t, model.NotesHierarchical, notes.Style)
	assert.Equal(t, len(notes.Sections), notes.Structure.SectionCount)
	assert.True(t, notes.Structure.HasIntro)
	assert.Positive(t, notes.Metadata.WordCount)
	assert.Positive(t, notes.Metadata.ReadingTimeMins)
	assert.NotEmpty(t, notes.SearchIndex.Keywords)
	assert.Contains(t, store.artifacts, model.ArtifactNotes)
}

func TestNotesEntityIndexAndCategorization(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeCompleter{response: `{
		"sections": [{"title": "Log replication", "content": "Leaders append entries and replicate them to followers.", "level": 1, "type": "main-content"}],
		"main_topics": ["consensus", "replication"],
		"key_terms": ["quorum"],
		"primary_category": "distributed systems",
		"secondary_category": "databases",
		"subjects": ["raft", "consensus"],
		"tags": ["systems"]
	}`}
	analyzer := &fakeAnalyzer{insights: &ai.Insights{
		Entities: []ai.Entity{
			{Text: "Raft", Type: "technology"},
			{Text: "raft", Type: "technology"},
			{Text: "Diego Ongaro", Type: "person"},
		},
	}}

	o := NewNotesOrganizer(llm, analyzer, store)
	notes, err := o.Organize(context.Background(), &Request{
		UserID: "u1", CapsuleID: "c1",
		Transcript: longTranscript(30),
	})

	require.NoError(t, err)
	assert.Equal(t, "databases", notes.Categorization.SecondaryCategory)
	assert.Equal(t, []string{"raft", "consensus"}, notes.Categorization.Subjects)
	require.NotNil(t, notes.SearchIndex.Entities)
	assert.Equal(t, []string{"Raft"}, notes.SearchIndex.Entities["technology"])
	assert.Equal(t, []string{"Diego Ongaro"}, notes.SearchIndex.Entities["person"])
}

func TestNotesCategorizationFallsBackToTopics(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeCompleter{response: `{
		"sections": [{"title": "Elections", "content": "Candidates request votes from every peer in the cluster.", "level": 1, "type": "main-content"}],
		"main_topics": ["Consensus", "Elections"],
		"primary_category": "consensus"
	}`}

	o := NewNotesOrganizer(llm, nil, store)
	notes, err := o.Organize(context.Background(), &Request{
		UserID: "u1", CapsuleID: "c1",
		Transcript: longTranscript(30),
	})

	require.NoError(t, err)
	// Subjects default to the main topics; the secondary category is the
	// first topic that differs from the primary.
	assert.Equal(t, []string{"Consensus", "Elections"}, notes.Categorization.Subjects)
	assert.Equal(t, "Elections", notes.Categorization.SecondaryCategory)
}

func sectionTitles(notes *model.OrganizedNotes) []string {
	titles := make([]string, len(notes.Sections))
	for i, s := range notes.Sections {
		titles[i] = s.Title
	}
	return titles
}
