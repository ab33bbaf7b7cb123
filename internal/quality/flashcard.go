package quality

import (
	"strings"

	"github.com/mlindgren/capsuled/internal/model"
)

const (
	// NeutralCardScore is assigned when scoring itself fails; it sits exactly
	// at the keep/drop boundary so such cards are retained.
	NeutralCardScore = 5.0

	// MinCardScore is the overall score below which a card is dropped
	MinCardScore = 5.0
)

// ScoreFlashcard rates a card 0-10 on clarity, accuracy, difficulty
// alignment, and engagement. Overall is the mean of the four axes.
func ScoreFlashcard(card *model.Flashcard) model.CardQuality {
	clarity := scoreClarity(card)
	accuracy := scoreAccuracy(card)
	difficulty := scoreDifficultyFit(card)
	engagement := scoreEngagement(card)

	return model.CardQuality{
		Clarity:    clarity,
		Accuracy:   accuracy,
		Difficulty: difficulty,
		Engagement: engagement,
		Overall:    (clarity + accuracy + difficulty + engagement) / 4,
	}
}

// NeutralQuality is the fallback quality record when scoring is unavailable
func NeutralQuality() model.CardQuality {
	return model.CardQuality{
		Clarity:    NeutralCardScore,
		Accuracy:   NeutralCardScore,
		Difficulty: NeutralCardScore,
		Engagement: NeutralCardScore,
		Overall:    NeutralCardScore,
	}
}

// scoreClarity rewards fronts that read as a single focused question
func scoreClarity(card *model.Flashcard) float64 {
	front := strings.TrimSpace(card.Front)
	if front == "" {
		return 0
	}

	score := 10.0
	words := len(strings.Fields(front))
	switch {
	case words < 3:
		score -= 4
	case words > 40:
		score -= 3
	}
	if strings.Count(front, "?") > 1 {
		score -= 2
	}
	if score < 0 {
		score = 0
	}
	return score
}

// scoreAccuracy is a proxy: a back that restates the front wholesale or is
// empty carries no information.
func scoreAccuracy(card *model.Flashcard) float64 {
	back := strings.TrimSpace(card.Back)
	if back == "" {
		return 0
	}

	score := 10.0
	if strings.EqualFold(strings.TrimSpace(card.Front), back) {
		score -= 6
	}
	if len(strings.Fields(back)) < 2 {
		score -= 3
	}
	if score < 0 {
		score = 0
	}
	return score
}

// scoreDifficultyFit checks the declared difficulty against answer length,
// a rough stand-in for conceptual depth.
func scoreDifficultyFit(card *model.Flashcard) float64 {
	words := len(strings.Fields(card.Back))

	switch card.Difficulty {
	case model.DifficultyEasy:
		if words > 60 {
			return 5
		}
	case model.DifficultyHard:
		if words < 5 {
			return 5
		}
	}
	return 8
}

// scoreEngagement rewards cards that ask rather than state
func scoreEngagement(card *model.Flashcard) float64 {
	front := strings.TrimSpace(card.Front)

	score := 6.0
	if strings.HasSuffix(front, "?") {
		score += 2
	}
	lower := strings.ToLower(front)
	for _, opener := range []string{"why", "how", "what", "when", "compare", "explain"} {
		if strings.HasPrefix(lower, opener) {
			score += 2
			break
		}
	}
	if score > 10 {
		score = 10
	}
	return score
}
