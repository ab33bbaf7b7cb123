package quality

import (
	"strings"

	"github.com/mlindgren/capsuled/internal/model"
)

// ValidateQuestion checks one quiz question against structural and content
// heuristics. Failing questions are dropped from the quiz, not errors.
func ValidateQuestion(q *model.QuizQuestion) model.QualityValidation {
	var issues []string

	question := strings.TrimSpace(q.Question)
	switch {
	case question == "":
		issues = append(issues, "question text is empty")
	case len(question) < 10:
		issues = append(issues, "question text is too short")
	case len(question) > 500:
		issues = append(issues, "question text is too long")
	}

	if strings.TrimSpace(q.Answer) == "" {
		issues = append(issues, "answer is missing")
	}

	switch q.Type {
	case model.QuesMultipleChoice:
		if len(q.Options) < 2 {
			issues = append(issues, "multiple-choice question needs at least two options")
		} else if !containsFold(q.Options, q.Answer) {
			issues = append(issues, "correct answer is not among the options")
		}
		if hasDuplicates(q.Options) {
			issues = append(issues, "options contain duplicates")
		}
	case model.QuesTrueFalse:
		answer := strings.ToLower(strings.TrimSpace(q.Answer))
		if answer != "true" && answer != "false" {
			issues = append(issues, "true/false answer must be true or false")
		}
	case model.QuesShortAnswer, model.QuesFillBlank:
		if len(strings.Fields(q.Answer)) > 10 {
			issues = append(issues, "expected answer is too long for the question type")
		}
	default:
		issues = append(issues, "unknown question type")
	}

	// Answer leakage: the question should not contain its own answer verbatim
	if q.Answer != "" && q.Type != model.QuesTrueFalse &&
		strings.Contains(strings.ToLower(question), strings.ToLower(strings.TrimSpace(q.Answer))) {
		issues = append(issues, "question text reveals the answer")
	}

	score := 1.0 - 0.25*float64(len(issues))
	if score < 0 {
		score = 0
	}

	return model.QualityValidation{
		Score:  score,
		Passed: len(issues) == 0,
		Issues: issues,
	}
}

func containsFold(options []string, answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	for _, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == answer {
			return true
		}
	}
	return false
}

func hasDuplicates(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}
