package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
	"github.com/mlindgren/capsuled/internal/quality"
)

const defaultQuestionCount = 10

// Defaults for heuristic fallback questions
const (
	fallbackPoints    = 2
	fallbackTimeLimit = 60
)

// QuizGenerator produces the quiz artifact for a capsule
type QuizGenerator struct {
	llm      ai.Completer
	analyzer ai.Analyzer
	store    ArtifactStore
}

// NewQuizGenerator creates a new quiz generator. When an analyzer is set,
// its failure aborts generation: there is no sensible quiz without the
// analysis that grounds it.
func NewQuizGenerator(llm ai.Completer, analyzer ai.Analyzer, store ArtifactStore) *QuizGenerator {
	return &QuizGenerator{llm: llm, analyzer: analyzer, store: store}
}

// Generate builds, validates, and persists the quiz artifact
func (g *QuizGenerator) Generate(ctx context.Context, req *Request) (*model.QuizResult, error) {
	transcript, segments, err := resolveTranscript(ctx, g.store, req)
	if err != nil {
		return nil, err
	}

	opts := req.Options
	count := opts.QuestionCount
	if count <= 0 {
		count = defaultQuestionCount
	}
	types := opts.QuestionTypes
	if len(types) == 0 {
		types = []model.QuesType{model.QuesMultipleChoice, model.QuesTrueFalse, model.QuesShortAnswer}
	}
	difficulty := opts.QuizDifficulty
	if difficulty == "" {
		difficulty = model.DifficultyMixed
	}

	typeCounts := distributeByType(count, types)
	difficultyCounts := distributeByDifficulty(count, difficulty)

	var insights *ai.Insights
	if g.analyzer != nil {
		insights, err = g.analyzer.Analyze(ctx, transcript, "")
		if err != nil {
			// No safe fallback exists without the analysis; propagate
			return nil, fmt.Errorf("content analysis failed: %w", err)
		}
	}

	summary := resolveSummary(ctx, g.store, req)
	content := quizContent(transcript, summary)

	result := &model.QuizResult{
		TypeDistribution:       typeCounts,
		DifficultyDistribution: difficultyCounts,
		VideoID:                req.Video.VideoID,
		VideoTitle:             req.Video.Title,
		GeneratedAt:            time.Now().UTC(),
	}

	rawQuestions, err := g.fromModel(ctx, content, req.Video, insights, typeCounts, difficultyCounts, opts.QuizTimeLimit)
	if err != nil {
		slog.Warn("model quiz failed, using heuristic fallback", "capsule_id", req.CapsuleID, "error", err)
		result.Questions = fallbackQuestions(summary, count)
		result.QualityValidation = model.QuizQualitySummary{Validated: len(result.Questions)}
	} else {
		result.Questions, result.QualityValidation = g.postProcess(rawQuestions, segments)
	}

	categories := make(map[string]struct{})
	for i := range result.Questions {
		q := &result.Questions[i]
		result.TotalPoints += q.Points
		result.TotalTimeLimit += q.TimeLimit
		if q.Category != "" {
			if _, ok := categories[q.Category]; !ok {
				categories[q.Category] = struct{}{}
				result.Categories = append(result.Categories, q.Category)
			}
		}
	}

	if opts.AdaptiveQuiz {
		result.Adaptive = &model.AdaptiveSettings{
			Enabled:         true,
			StartDifficulty: model.DifficultyMedium,
			StepUpAfter:     2,
			StepDownAfter:   2,
		}
	}

	if err := g.store.SetArtifact(ctx, req.UserID, req.CapsuleID, model.ArtifactQuiz, result); err != nil {
		return nil, fmt.Errorf("failed to persist quiz: %w", err)
	}

	return result, nil
}

// distributeByType divides count evenly across the requested types, with the
// remainder going to the earliest-listed types.
func distributeByType(count int, types []model.QuesType) map[model.QuesType]int {
	counts := make(map[model.QuesType]int, len(types))
	base := count / len(types)
	remainder := count % len(types)

	for i, t := range types {
		counts[t] = base
		if i < remainder {
			counts[t]++
		}
	}

	return counts
}

// distributeByDifficulty resolves a difficulty setting into per-level
// counts. Mixed uses the fixed 30/50/20 split, ceiling for easy and medium
// and floor for hard, so the total may be off by rounding.
func distributeByDifficulty(count int, difficulty model.Difficulty) map[model.Difficulty]int {
	if difficulty != model.DifficultyMixed {
		return map[model.Difficulty]int{difficulty: count}
	}

	n := float64(count)
	return map[model.Difficulty]int{
		model.DifficultyEasy:   int(math.Ceil(n * 0.3)),
		model.DifficultyMedium: int(math.Ceil(n * 0.5)),
		model.DifficultyHard:   int(math.Floor(n * 0.2)),
	}
}

func quizContent(transcript string, summary *model.SummaryResult) string {
	var sb strings.Builder
	if summary != nil {
		sb.WriteString(summary.Summary)
		if len(summary.KeyPoints) > 0 {
			sb.WriteString("\n\nKey points:\n- ")
			sb.WriteString(strings.Join(summary.KeyPoints, "\n- "))
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString(transcript)
	return sb.String()
}

type rawQuestion struct {
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty"`
	Points      int      `json:"points"`
	TimeLimit   int      `json:"time_limit"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Hints       []string `json:"hints"`
}

func (g *QuizGenerator) fromModel(ctx context.Context, content string, video model.VideoMetadata, insights *ai.Insights, typeCounts map[model.QuesType]int, difficultyCounts map[model.Difficulty]int, timeLimit int) ([]rawQuestion, error) {
	raw, err := g.llm.Complete(ctx, ai.CompletionRequest{
		System:      systemInstruction,
		Prompt:      buildQuizPrompt(content, video, insights, typeCounts, difficultyCounts, timeLimit),
		Temperature: 0.4,
		MaxTokens:   4096,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Questions []rawQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse quiz response: %w", err)
	}
	if len(parsed.Questions) == 0 {
		return nil, fmt.Errorf("model returned no questions")
	}

	return parsed.Questions, nil
}

// postProcess clamps, attributes, and quality-filters model questions.
// Only validated questions are kept; drops are reported, not errors.
func (g *QuizGenerator) postProcess(raw []rawQuestion, segments []model.TranscriptSegment) ([]model.QuizQuestion, model.QuizQualitySummary) {
	var (
		kept    []model.QuizQuestion
		summary model.QuizQualitySummary
	)

	for _, r := range raw {
		q := model.QuizQuestion{
			ID:          uuid.NewString(),
			Type:        model.QuesType(r.Type),
			Question:    strings.TrimSpace(r.Question),
			Options:     r.Options,
			Answer:      strings.TrimSpace(r.Answer),
			Explanation: strings.TrimSpace(r.Explanation),
			Difficulty:  model.Difficulty(r.Difficulty),
			Points:      clamp(r.Points, model.MinQuestionPoints, model.MaxQuestionPoints),
			TimeLimit:   clamp(r.TimeLimit, model.MinTimeLimit, model.MaxTimeLimit),
			Tags:        r.Tags,
			Category:    strings.TrimSpace(r.Category),
		}

		if q.Type != model.QuesMultipleChoice {
			q.Options = nil
		} else if len(q.Options) > model.MaxOptions {
			q.Options = q.Options[:model.MaxOptions]
		}
		if len(r.Hints) > model.MaxHints {
			q.Hints = r.Hints[:model.MaxHints]
		} else {
			q.Hints = r.Hints
		}

		q.Source = matchSegment(q.Question, segments)

		check := quality.ValidateQuestion(&q)
		if !check.Passed {
			summary.Dropped++
			summary.Issues = append(summary.Issues, check.Issues...)
			continue
		}

		summary.Validated++
		kept = append(kept, q)
	}

	return kept, summary
}

// fallbackQuestions builds one short-answer question per key point and one
// true/false question per topic, up to the requested count. Fixed values,
// no quality filtering.
func fallbackQuestions(summary *model.SummaryResult, count int) []model.QuizQuestion {
	var questions []model.QuizQuestion

	if summary != nil {
		for _, point := range summary.KeyPoints {
			if len(questions) >= count {
				break
			}
			questions = append(questions, model.QuizQuestion{
				ID:         uuid.NewString(),
				Type:       model.QuesShortAnswer,
				Question:   fmt.Sprintf("Explain the following point from the video: %s", point),
				Answer:     point,
				Difficulty: model.DifficultyMedium,
				Points:     fallbackPoints,
				TimeLimit:  fallbackTimeLimit,
			})
		}
		for _, topic := range summary.Topics {
			if len(questions) >= count {
				break
			}
			questions = append(questions, model.QuizQuestion{
				ID:         uuid.NewString(),
				Type:       model.QuesTrueFalse,
				Question:   fmt.Sprintf("The video covers the topic %q.", topic),
				Answer:     "true",
				Difficulty: model.DifficultyEasy,
				Points:     fallbackPoints,
				TimeLimit:  fallbackTimeLimit,
			})
		}
	}

	return questions
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
