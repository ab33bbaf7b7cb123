package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/capsuled/internal/model"
)

func TestDistributeByType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
		types []model.QuesType
		want  map[model.QuesType]int
	}{
		{
			name:  "even split",
			count: 10,
			types: []model.QuesType{model.QuesMultipleChoice, model.QuesTrueFalse},
			want: map[model.QuesType]int{
				model.QuesMultipleChoice: 5,
				model.QuesTrueFalse:      5,
			},
		},
		{
			name:  "remainder goes to earliest types",
			count: 10,
			types: []model.QuesType{model.QuesMultipleChoice, model.QuesTrueFalse, model.QuesShortAnswer},
			want: map[model.QuesType]int{
				model.QuesMultipleChoice: 4,
				model.QuesTrueFalse:      3,
				model.QuesShortAnswer:    3,
			},
		},
		{
			name:  "single type takes all",
			count: 7,
			types: []model.QuesType{model.QuesShortAnswer},
			want:  map[model.QuesType]int{model.QuesShortAnswer: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := distributeByType(tt.count, tt.types)
			assert.Equal(t, tt.want, got)

			total := 0
			for _, n := range got {
				total += n
			}
			assert.Equal(t, tt.count, total)
		})
	}
}

func TestDistributeByDifficulty(t *testing.T) {
	t.Parallel()

	t.Run("mixed uses 30/50/20 split", func(t *testing.T) {
		got := distributeByDifficulty(10, model.DifficultyMixed)
		assert.Equal(t, 3, got[model.DifficultyEasy])
		assert.Equal(t, 5, got[model.DifficultyMedium])
		assert.Equal(t, 2, got[model.DifficultyHard])
	})

	t.Run("mixed rounds easy and medium up, hard down", func(t *testing.T) {
		got := distributeByDifficulty(7, model.DifficultyMixed)
		assert.Equal(t, 3, got[model.DifficultyEasy])   // ceil(2.1)
		assert.Equal(t, 4, got[model.DifficultyMedium]) // ceil(3.5)
		assert.Equal(t, 1, got[model.DifficultyHard])   // floor(1.4)
	})

	t.Run("fixed difficulty takes all", func(t *testing.T) {
		got := distributeByDifficulty(8, model.DifficultyHard)
		assert.Equal(t, map[model.Difficulty]int{model.DifficultyHard: 8}, got)
	})
}

func TestPostProcessClampsBounds(t *testing.T) {
	t.Parallel()

	g := &QuizGenerator{}
	raw := []rawQuestion{
		{
			Type:      string(model.QuesMultipleChoice),
			Question:  "Which component coordinates the cluster state?",
			Options:   []string{"scheduler", "controller", "etcd", "kubelet", "proxy", "api server"},
			Answer:    "etcd",
			Points:    99,
			TimeLimit: 5,
			Hints:     []string{"a", "b", "c", "d", "e"},
		},
		{
			Type:      string(model.QuesShortAnswer),
			Question:  "What protocol does the control plane use for consensus?",
			Answer:    "raft",
			Options:   []string{"should", "be", "dropped"},
			Points:    0,
			TimeLimit: 9999,
		},
	}

	questions, summary := g.postProcess(raw, nil)
	require.Len(t, questions, 2)
	assert.Equal(t, 2, summary.Validated)
	assert.Equal(t, 0, summary.Dropped)

	mc := questions[0]
	assert.Equal(t, model.MaxQuestionPoints, mc.Points)
	assert.Equal(t, model.MinTimeLimit, mc.TimeLimit)
	assert.Len(t, mc.Options, model.MaxOptions)
	assert.Len(t, mc.Hints, model.MaxHints)
	assert.NotEmpty(t, mc.ID)

	sa := questions[1]
	assert.Equal(t, model.MinQuestionPoints, sa.Points)
	assert.Equal(t, model.MaxTimeLimit, sa.TimeLimit)
	assert.Nil(t, sa.Options, "non-multiple-choice questions carry no options")
}

func TestPostProcessDropsInvalidQuestions(t *testing.T) {
	t.Parallel()

	g := &QuizGenerator{}
	raw := []rawQuestion{
		{
			Type:     string(model.QuesTrueFalse),
			Question: "The video claims consensus requires a majority quorum.",
			Answer:   "maybe",
		},
		{
			Type:     string(model.QuesTrueFalse),
			Question: "The video claims consensus requires a majority quorum.",
			Answer:   "true",
		},
	}

	questions, summary := g.postProcess(raw, nil)
	require.Len(t, questions, 1)
	assert.Equal(t, 1, summary.Validated)
	assert.Equal(t, 1, summary.Dropped)
	assert.NotEmpty(t, summary.Issues)
}

func TestQuizAnalyzerFailurePropagates(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeCompleter{response: "{}"}
	analyzer := &fakeAnalyzer{err: errors.New("analysis service down")}

	g := NewQuizGenerator(llm, analyzer, store)
	_, err := g.Generate(context.Background(), &Request{
		UserID:     "u1",
		CapsuleID:  "c1",
		Transcript: longTranscript(20),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "content analysis failed")
	assert.Zero(t, llm.calls, "no completion call after analysis fails")
	assert.Empty(t, store.artifacts, "nothing persisted after analysis fails")
}

func TestQuizModelFailureFallsBack(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	llm := &fakeCompleter{err: errors.New("model unavailable")}

	g := NewQuizGenerator(llm, nil, store)
	result, err := g.Generate(context.Background(), &Request{
		UserID:     "u1",
		CapsuleID:  "c1",
		Transcript: longTranscript(20),
		Summary: &model.SummaryResult{
			Summary:   "The video explains consensus protocols.",
			KeyPoints: []string{"Quorums require a majority of nodes."},
			Topics:    []string{"consensus"},
		},
	})

	require.NoError(t, err)
	require.NotEmpty(t, result.Questions)
	assert.Equal(t, model.QuesShortAnswer, result.Questions[0].Type)
	assert.Equal(t, fallbackPoints, result.Questions[0].Points)
	assert.Contains(t, store.artifacts, model.ArtifactQuiz)
}

func TestQuizMissingInput(t *testing.T) {
	t.Parallel()

	g := NewQuizGenerator(&fakeCompleter{}, nil, newFakeStore())
	_, err := g.Generate(context.Background(), &Request{UserID: "u1", CapsuleID: "c1"})
	assert.ErrorIs(t, err, ErrMissingInput)
}
