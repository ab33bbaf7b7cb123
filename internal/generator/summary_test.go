package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/capsuled/internal/model"
)

func TestFallbackSummary(t *testing.T) {
	t.Parallel()

	transcript := "First sentence opens the video. " +
		"The most important concept is consensus. " +
		"Middle sections walk through examples. " +
		"A key takeaway involves quorums. " +
		"Closing sentence wraps everything up."

	result := fallbackSummary(transcript, model.VideoMetadata{
		Title:       "Consensus Protocols Explained",
		Description: "Replication and coordination in distributed databases.",
	})

	assert.Equal(t, fallbackConfidence, result.Confidence)
	assert.True(t, strings.HasPrefix(result.Summary, "First sentence"), "opening sentence always included")
	assert.Contains(t, result.Summary, "Closing sentence", "closing sentence always included")

	// Trigger words mark key points
	require.Len(t, result.KeyPoints, 2)
	assert.Contains(t, result.KeyPoints[0], "important")
	assert.Contains(t, result.KeyPoints[1], "key")

	assert.NotEmpty(t, result.Topics)
	for _, topic := range result.Topics {
		assert.GreaterOrEqual(t, len(topic), 6)
	}
}

func TestFallbackSummaryEmptyTranscript(t *testing.T) {
	t.Parallel()

	result := fallbackSummary("", model.VideoMetadata{})
	assert.Empty(t, result.Summary)
	assert.Empty(t, result.KeyPoints)
	assert.Equal(t, fallbackConfidence, result.Confidence)
}

func TestSummaryGenerateUsesFallbackAndCapsConfidence(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeCompleter{err: errors.New("model unavailable")}

	g := NewSummaryGenerator(llm, nil, store)
	result, err := g.Generate(context.Background(), &Request{
		UserID: "u1", CapsuleID: "c1",
		Transcript: "just a short clip here.",
		Video:      model.VideoMetadata{VideoID: "vid1", Title: "Tiny"},
	})

	require.NoError(t, err)
	require.NotNil(t, result.QualityValidation)
	assert.False(t, result.QualityValidation.Passed, "a vague one-sentence summary scores below the threshold")
	assert.LessOrEqual(t, result.Confidence, result.QualityValidation.Score+0.2)
	assert.Equal(t, "vid1", result.VideoID)
	assert.Contains(t, store.artifacts, model.ArtifactSummary)
}

func TestSummaryAnalyzerFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeCompleter{response: `{"summary": "The video walks through Raft consensus, covering leader election, log replication, and snapshotting across a five node cluster with concrete failure scenarios and recovery timelines measured in milliseconds.", "key_points": ["Leaders replicate log entries"], "topics": ["raft"], "confidence": 0.9}`}
	analyzer := &fakeAnalyzer{err: errors.New("analysis service down")}

	g := NewSummaryGenerator(llm, analyzer, store)
	result, err := g.Generate(context.Background(), &Request{
		UserID: "u1", CapsuleID: "c1",
		Transcript: longTranscript(20),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Summary)
	assert.Equal(t, 1, llm.calls, "generation proceeds without insights")
}
