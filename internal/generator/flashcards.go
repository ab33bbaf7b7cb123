package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
	"github.com/mlindgren/capsuled/internal/quality"
	"github.com/mlindgren/capsuled/internal/srs"
)

const (
	defaultMaxCards = 20

	// duplicateThreshold is the front-text similarity above which two cards
	// count as near-duplicates
	duplicateThreshold = 0.8

	// secondsPerCard feeds the estimated-study-time calculation
	secondsPerCard = 30
)

// CardScorer scores one flashcard; quality.ScoreFlashcard in production,
// substitutable in tests. A scorer failure never aborts generation.
type CardScorer func(card *model.Flashcard) (model.CardQuality, error)

// FlashcardGenerator produces the flashcard artifact for a capsule
type FlashcardGenerator struct {
	llm    ai.Completer
	store  ArtifactStore
	scorer CardScorer
	now    func() time.Time
}

// NewFlashcardGenerator creates a new flashcard generator
func NewFlashcardGenerator(llm ai.Completer, store ArtifactStore) *FlashcardGenerator {
	return &FlashcardGenerator{
		llm:   llm,
		store: store,
		scorer: func(card *model.Flashcard) (model.CardQuality, error) {
			return quality.ScoreFlashcard(card), nil
		},
		now: time.Now,
	}
}

// Generate builds, filters, and persists the flashcard artifact
func (g *FlashcardGenerator) Generate(ctx context.Context, req *Request) (*model.FlashcardSet, error) {
	content := strings.TrimSpace(req.Transcript)
	if content == "" && req.Summary != nil {
		content = strings.TrimSpace(req.Summary.Summary)
	}
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) < minContentChars {
		return nil, ErrContentTooShort
	}

	opts := req.Options
	maxCards := opts.MaxCards
	if maxCards <= 0 {
		maxCards = defaultMaxCards
	}

	cards, err := g.fromModel(ctx, content, req.Video, opts, maxCards)
	if err != nil {
		slog.Warn("model flashcards failed, using heuristic fallback", "capsule_id", req.CapsuleID, "error", err)
		cards = fallbackCards(req.Summary, content, maxCards)
	}

	now := g.now().UTC()
	set := &model.FlashcardSet{
		VideoID:     req.Video.VideoID,
		VideoTitle:  req.Video.Title,
		GeneratedAt: now,
	}

	// Score first so dedupe can keep the best card of each cluster
	for i := range cards {
		q, err := g.scorer(&cards[i])
		if err != nil {
			slog.Warn("card scoring failed, assigning neutral quality", "error", err)
			q = quality.NeutralQuality()
		}
		cards[i].Quality = q
	}

	if opts.AvoidDuplicates {
		var dropped int
		cards, dropped = dedupeCards(cards)
		set.Metadata.DroppedDuplicates = dropped
	}

	kept := cards[:0]
	for _, card := range cards {
		if card.Quality.Overall < quality.MinCardScore {
			set.Metadata.DroppedLowQuality++
			continue
		}
		kept = append(kept, card)
	}
	cards = kept

	if len(cards) > maxCards {
		cards = cards[:maxCards]
	}

	for i := range cards {
		cards[i].ID = uuid.NewString()
		cards[i].Schedule = srs.Seed(now)
	}

	set.Cards = cards
	set.Groupings = groupCards(cards)
	set.StudySequence = studySequence(cards)
	fillSetMetadata(set)
	set.Analytics = analyzeSet(cards, req.Summary)

	if err := g.store.SetArtifact(ctx, req.UserID, req.CapsuleID, model.ArtifactFlashcards, set); err != nil {
		return nil, fmt.Errorf("failed to persist flashcards: %w", err)
	}

	return set, nil
}

type rawCard struct {
	Front      string   `json:"front"`
	Back       string   `json:"back"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
}

func (g *FlashcardGenerator) fromModel(ctx context.Context, content string, video model.VideoMetadata, opts model.GenerationOptions, maxCards int) ([]model.Flashcard, error) {
	raw, err := g.llm.Complete(ctx, ai.CompletionRequest{
		System:      systemInstruction,
		Prompt:      buildFlashcardPrompt(content, video, opts, maxCards),
		Temperature: 0.4,
		MaxTokens:   4096,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Cards []rawCard `json:"cards"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse flashcard response: %w", err)
	}
	if len(parsed.Cards) == 0 {
		return nil, fmt.Errorf("model returned no cards")
	}

	cards := make([]model.Flashcard, 0, len(parsed.Cards))
	for _, r := range parsed.Cards {
		front := strings.TrimSpace(r.Front)
		back := strings.TrimSpace(r.Back)
		if front == "" || back == "" {
			continue
		}

		cardType := model.CardType(r.Type)
		if cardType == "" {
			cardType = model.CardConcept
		}
		difficulty := model.Difficulty(r.Difficulty)
		if difficulty == "" {
			difficulty = model.DifficultyMedium
		}

		cards = append(cards, model.Flashcard{
			Front:      front,
			Back:       back,
			Type:       cardType,
			Difficulty: difficulty,
			Category:   strings.TrimSpace(r.Category),
			Tags:       r.Tags,
		})
	}

	return cards, nil
}

// fallbackCards derives definition cards from key points and concept cards
// from topics when the model is unavailable.
func fallbackCards(summary *model.SummaryResult, content string, maxCards int) []model.Flashcard {
	var cards []model.Flashcard

	if summary != nil {
		for _, point := range summary.KeyPoints {
			if len(cards) >= maxCards {
				break
			}
			cards = append(cards, model.Flashcard{
				Front:      fmt.Sprintf("What does the video say about: %s", truncateText(point, 120)),
				Back:       point,
				Type:       model.CardFact,
				Difficulty: model.DifficultyMedium,
			})
		}
		for _, topic := range summary.Topics {
			if len(cards) >= maxCards {
				break
			}
			cards = append(cards, model.Flashcard{
				Front:      fmt.Sprintf("Describe the topic %q as covered in the video.", topic),
				Back:       fmt.Sprintf("%s is one of the main topics; review the summary for details.", topic),
				Type:       model.CardConcept,
				Difficulty: model.DifficultyEasy,
			})
		}
	}

	if len(cards) == 0 {
		for _, sentence := range splitSentences(content) {
			if len(cards) >= maxCards || len(sentence) < 40 {
				continue
			}
			cards = append(cards, model.Flashcard{
				Front:      fmt.Sprintf("Complete the idea: %s", truncateText(sentence, 60)),
				Back:       sentence,
				Type:       model.CardFact,
				Difficulty: model.DifficultyMedium,
			})
		}
	}

	return cards
}

// dedupeCards removes near-duplicate fronts, keeping the highest-quality
// card of each cluster (first card on ties).
func dedupeCards(cards []model.Flashcard) ([]model.Flashcard, int) {
	type cluster struct {
		words map[string]struct{}
		idx   int
	}

	var (
		clusters []cluster
		kept     []model.Flashcard
		dropped  int
	)

	for _, card := range cards {
		words := wordSet(strings.ToLower(card.Front))

		matched := -1
		for i, c := range clusters {
			if jaccard(words, c.words) >= duplicateThreshold {
				matched = i
				break
			}
		}

		if matched < 0 {
			clusters = append(clusters, cluster{words: words, idx: len(kept)})
			kept = append(kept, card)
			continue
		}

		dropped++
		if card.Quality.Overall > kept[clusters[matched].idx].Quality.Overall {
			kept[clusters[matched].idx] = card
		}
	}

	return kept, dropped
}

func groupCards(cards []model.Flashcard) model.CardGroupings {
	groupings := model.CardGroupings{
		ByDifficulty: make(map[model.Difficulty][]string),
		ByType:       make(map[model.CardType][]string),
		ByCategory:   make(map[string][]string),
	}

	for _, card := range cards {
		groupings.ByDifficulty[card.Difficulty] = append(groupings.ByDifficulty[card.Difficulty], card.ID)
		groupings.ByType[card.Type] = append(groupings.ByType[card.Type], card.ID)
		if card.Category != "" {
			groupings.ByCategory[card.Category] = append(groupings.ByCategory[card.Category], card.ID)
		}
	}

	return groupings
}

// studySequence orders card IDs easiest first; the sort is stable so ties
// keep their original generation order.
func studySequence(cards []model.Flashcard) []string {
	ordered := make([]model.Flashcard, len(cards))
	copy(ordered, cards)

	sort.SliceStable(ordered, func(i, j int) bool {
		return difficultyRank(ordered[i].Difficulty) < difficultyRank(ordered[j].Difficulty)
	})

	ids := make([]string, len(ordered))
	for i, card := range ordered {
		ids[i] = card.ID
	}
	return ids
}

func fillSetMetadata(set *model.FlashcardSet) {
	set.Metadata.TotalCards = len(set.Cards)
	set.Metadata.DifficultyDistribution = make(map[model.Difficulty]int)
	set.Metadata.TypeDistribution = make(map[model.CardType]int)
	set.Metadata.EstStudyMinutes = (len(set.Cards)*secondsPerCard + 59) / 60

	var totalQuality float64
	for _, card := range set.Cards {
		set.Metadata.DifficultyDistribution[card.Difficulty]++
		set.Metadata.TypeDistribution[card.Type]++
		totalQuality += card.Quality.Overall
	}
	if len(set.Cards) > 0 {
		set.Metadata.AverageQuality = totalQuality / float64(len(set.Cards))
	}
}

// analyzeSet computes the set-level analytics scores, each 0-1
func analyzeSet(cards []model.Flashcard, summary *model.SummaryResult) model.FlashcardAnalytics {
	if len(cards) == 0 {
		return model.FlashcardAnalytics{}
	}

	// Concept coverage: share of summary key points touched by some card
	coverage := 1.0
	if summary != nil && len(summary.KeyPoints) > 0 {
		covered := 0
		for _, point := range summary.KeyPoints {
			pointWords := wordSet(point)
			for _, card := range cards {
				if overlapRatio(pointWords, wordSet(card.Front+" "+card.Back)) > 0.3 {
					covered++
					break
				}
			}
		}
		coverage = float64(covered) / float64(len(summary.KeyPoints))
	}

	// Redundancy: average pairwise front similarity
	var pairSim float64
	pairs := 0
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			pairSim += jaccard(wordSet(cards[i].Front), wordSet(cards[j].Front))
			pairs++
		}
	}
	redundancy := 0.0
	if pairs > 0 {
		redundancy = pairSim / float64(pairs)
	}

	// Coherence: share of cards sharing a category with another card
	coherent := 0
	categoryCounts := make(map[string]int)
	for _, card := range cards {
		if card.Category != "" {
			categoryCounts[card.Category]++
		}
	}
	for _, card := range cards {
		if categoryCounts[card.Category] > 1 {
			coherent++
		}
	}
	coherence := float64(coherent) / float64(len(cards))

	// Completeness: how close the set comes to a full spread of types
	types := make(map[model.CardType]struct{})
	for _, card := range cards {
		types[card.Type] = struct{}{}
	}
	completeness := float64(len(types)) / 4.0
	if completeness > 1 {
		completeness = 1
	}

	return model.FlashcardAnalytics{
		ConceptCoverage: coverage,
		Redundancy:      redundancy,
		Coherence:       coherence,
		Completeness:    completeness,
	}
}
