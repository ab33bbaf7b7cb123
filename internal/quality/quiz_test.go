package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlindgren/capsuled/internal/model"
)

func TestValidateQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		question  model.QuizQuestion
		wantPass  bool
		wantIssue string
	}{
		{
			name: "valid multiple choice",
			question: model.QuizQuestion{
				Type:     model.QuesMultipleChoice,
				Question: "Which node type holds the cluster's committed log?",
				Options:  []string{"leader", "follower", "observer"},
				Answer:   "leader",
			},
			wantPass: true,
		},
		{
			name: "answer missing from options",
			question: model.QuizQuestion{
				Type:     model.QuesMultipleChoice,
				Question: "Which node type holds the cluster's committed log?",
				Options:  []string{"follower", "observer"},
				Answer:   "leader",
			},
			wantPass:  false,
			wantIssue: "correct answer is not among the options",
		},
		{
			name: "duplicate options",
			question: model.QuizQuestion{
				Type:     model.QuesMultipleChoice,
				Question: "Which node type holds the cluster's committed log?",
				Options:  []string{"leader", "leader", "follower"},
				Answer:   "leader",
			},
			wantPass:  false,
			wantIssue: "options contain duplicates",
		},
		{
			name: "true false with invalid answer",
			question: model.QuizQuestion{
				Type:     model.QuesTrueFalse,
				Question: "Quorums always need a strict majority of voters.",
				Answer:   "probably",
			},
			wantPass:  false,
			wantIssue: "true/false answer must be true or false",
		},
		{
			name: "short answer expected answer too long",
			question: model.QuizQuestion{
				Type:     model.QuesShortAnswer,
				Question: "Name the consensus algorithm described in the talk.",
				Answer:   "the answer is a very long sentence that goes on and on and should never pass",
			},
			wantPass:  false,
			wantIssue: "expected answer is too long for the question type",
		},
		{
			name: "question leaks its answer",
			question: model.QuizQuestion{
				Type:     model.QuesShortAnswer,
				Question: "The raft algorithm is called what exactly? raft",
				Answer:   "raft",
			},
			wantPass:  false,
			wantIssue: "question text reveals the answer",
		},
		{
			name: "empty question text",
			question: model.QuizQuestion{
				Type:   model.QuesShortAnswer,
				Answer: "raft",
			},
			wantPass:  false,
			wantIssue: "question text is empty",
		},
		{
			name: "unknown type",
			question: model.QuizQuestion{
				Type:     "matching",
				Question: "Match each term with its definition below.",
				Answer:   "pairs",
			},
			wantPass:  false,
			wantIssue: "unknown question type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateQuestion(&tt.question)
			assert.Equal(t, tt.wantPass, got.Passed)
			if tt.wantIssue != "" {
				assert.Contains(t, got.Issues, tt.wantIssue)
			}
			if tt.wantPass {
				assert.Equal(t, 1.0, got.Score)
			} else {
				assert.Less(t, got.Score, 1.0)
			}
		})
	}
}

func TestValidateQuestionScoreFloor(t *testing.T) {
	t.Parallel()

	q := model.QuizQuestion{Type: "mystery"}
	got := ValidateQuestion(&q)
	assert.False(t, got.Passed)
	assert.GreaterOrEqual(t, got.Score, 0.0)
}
