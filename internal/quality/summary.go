// Package quality scores generated artifacts against simple heuristics and
// decides whether to keep, improve, or drop them. None of it touches the
// network; everything here is a pure function over the artifact.
package quality

import (
	"fmt"
	"strings"

	"github.com/mlindgren/capsuled/internal/model"
)

// SummaryPassThreshold is the score (0-1) below which a summary gets the
// deterministic improve transform applied and its confidence capped.
const SummaryPassThreshold = 0.6

// EvaluateSummary scores a summary 0-1 on length, redundancy, and
// specificity.
func EvaluateSummary(s *model.SummaryResult) model.QualityValidation {
	var (
		score  = 1.0
		issues []string
		recs   []string
	)

	words := len(strings.Fields(s.Summary))
	switch {
	case words < 20:
		score -= 0.3
		issues = append(issues, "summary is very short")
		recs = append(recs, "expand the summary to cover the main points")
	case words > 400:
		score -= 0.2
		issues = append(issues, "summary is overly long")
		recs = append(recs, "condense the summary")
	}

	if redundancy := sentenceRedundancy(s.Summary); redundancy > 0.3 {
		score -= 0.2
		issues = append(issues, fmt.Sprintf("summary repeats itself (%.0f%% redundant)", redundancy*100))
		recs = append(recs, "remove repeated sentences")
	}

	if specificity(s.Summary) < 0.05 {
		score -= 0.2
		issues = append(issues, "summary lacks specific detail")
		recs = append(recs, "include concrete names, numbers, or terms from the source")
	}

	if len(s.KeyPoints) == 0 {
		score -= 0.1
		issues = append(issues, "no key points extracted")
	}

	if score < 0 {
		score = 0
	}

	return model.QualityValidation{
		Score:           score,
		Passed:          score >= SummaryPassThreshold,
		Issues:          issues,
		Recommendations: recs,
	}
}

// ImproveSummary applies the deterministic cleanup used when a summary
// scores below the pass threshold: duplicate sentences are removed and
// whitespace is collapsed. The transform never calls the model again.
func ImproveSummary(text string) string {
	seen := make(map[string]struct{})
	var kept []string

	for _, sentence := range splitSentences(text) {
		key := strings.ToLower(strings.TrimSpace(sentence))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, strings.Join(strings.Fields(sentence), " "))
	}

	return strings.Join(kept, " ")
}

// sentenceRedundancy is the share of sentences that duplicate an earlier one
func sentenceRedundancy(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return 0
	}

	seen := make(map[string]struct{})
	duplicates := 0
	for _, s := range sentences {
		key := strings.ToLower(strings.TrimSpace(s))
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}

	return float64(duplicates) / float64(len(sentences))
}

// specificity is the share of words that look like concrete detail:
// capitalized terms mid-sentence or digits.
func specificity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	specific := 0
	for i, w := range words {
		trimmed := strings.Trim(w, ".,;:!?\"'()")
		if trimmed == "" {
			continue
		}
		if strings.ContainsAny(trimmed, "0123456789") {
			specific++
			continue
		}
		if i > 0 && trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
			specific++
		}
	}

	return float64(specific) / float64(len(words))
}

func splitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); len(s) > 1 {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); len(s) > 1 {
		sentences = append(sentences, s)
	}
	return sentences
}
