package generator

import (
	"strings"
	"unicode"

	"github.com/mlindgren/capsuled/internal/model"
)

// splitSentences breaks text on sentence-ending punctuation. Good enough for
// the extractive fallbacks; no abbreviation handling.
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

// significantWords returns the lowercased words longer than three characters
func significantWords(text string) []string {
	var words []string
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 3 {
			words = append(words, strings.ToLower(w))
		}
	}
	return words
}

// wordSet returns significantWords as a set
func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range significantWords(text) {
		set[w] = struct{}{}
	}
	return set
}

// overlapRatio is the share of a's words also present in b
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a))
}

// jaccard similarity over two word sets, used for near-duplicate detection
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// truncateText caps text at max bytes, breaking at a word boundary
func truncateText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > max/2 {
		cut = cut[:idx]
	}
	return cut
}

// estimateReadingTime returns minutes at 200 words per minute, minimum 1
func estimateReadingTime(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	minutes := words / 200
	if words%200 != 0 {
		minutes++
	}
	return minutes
}

// difficultyRank orders card/question difficulties for stable sorting
func difficultyRank(d model.Difficulty) int {
	switch d {
	case model.DifficultyEasy:
		return 0
	case model.DifficultyMedium:
		return 1
	case model.DifficultyHard:
		return 2
	default:
		return 1
	}
}

// sectionDifficultyRank orders note-section difficulties ascending
func sectionDifficultyRank(d model.SectionDifficulty) int {
	switch d {
	case model.SectionBeginner:
		return 0
	case model.SectionIntermediate:
		return 1
	case model.SectionAdvanced:
		return 2
	default:
		return 1
	}
}
