package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
	"github.com/mlindgren/capsuled/internal/quality"
)

const fallbackConfidence = 0.6

// SummaryGenerator produces the summary artifact for a capsule
type SummaryGenerator struct {
	llm      ai.Completer
	analyzer ai.Analyzer
	store    ArtifactStore
}

// NewSummaryGenerator creates a new summary generator. The analyzer is
// optional; when present its insights ground the prompt.
func NewSummaryGenerator(llm ai.Completer, analyzer ai.Analyzer, store ArtifactStore) *SummaryGenerator {
	return &SummaryGenerator{llm: llm, analyzer: analyzer, store: store}
}

// Generate builds, validates, and persists the summary artifact
func (g *SummaryGenerator) Generate(ctx context.Context, req *Request) (*model.SummaryResult, error) {
	transcript, _, err := resolveTranscript(ctx, g.store, req)
	if err != nil {
		return nil, err
	}

	var insights *ai.Insights
	if g.analyzer != nil {
		insights, err = g.analyzer.Analyze(ctx, transcript, "")
		if err != nil {
			slog.Warn("insights analysis failed, generating without grounding", "capsule_id", req.CapsuleID, "error", err)
			insights = nil
		}
	}

	result, err := g.fromModel(ctx, transcript, req.Video, insights)
	if err != nil {
		slog.Warn("model summary failed, using extractive fallback", "capsule_id", req.CapsuleID, "error", err)
		result = fallbackSummary(transcript, req.Video)
	}

	result.VideoID = req.Video.VideoID
	result.VideoTitle = req.Video.Title
	result.ReadingTime = estimateReadingTime(transcript)
	result.GeneratedAt = time.Now().UTC()

	check := quality.EvaluateSummary(result)
	if !check.Passed {
		result.Summary = quality.ImproveSummary(result.Summary)
		if limit := check.Score + 0.2; result.Confidence > limit {
			result.Confidence = limit
		}
	}
	result.QualityValidation = &check

	if err := g.store.SetArtifact(ctx, req.UserID, req.CapsuleID, model.ArtifactSummary, result); err != nil {
		return nil, fmt.Errorf("failed to persist summary: %w", err)
	}

	return result, nil
}

func (g *SummaryGenerator) fromModel(ctx context.Context, transcript string, video model.VideoMetadata, insights *ai.Insights) (*model.SummaryResult, error) {
	raw, err := g.llm.Complete(ctx, ai.CompletionRequest{
		System:      systemInstruction,
		Prompt:      buildSummaryPrompt(transcript, video, insights),
		Temperature: 0.3,
		MaxTokens:   2048,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Summary    string   `json:"summary"`
		KeyPoints  []string `json:"key_points"`
		Topics     []string `json:"topics"`
		Confidence float64  `json:"confidence"`
		Language   string   `json:"language"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse summary response: %w", err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return nil, fmt.Errorf("model returned empty summary")
	}

	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}

	return &model.SummaryResult{
		Summary:    parsed.Summary,
		KeyPoints:  parsed.KeyPoints,
		Topics:     parsed.Topics,
		Confidence: confidence,
		Language:   parsed.Language,
	}, nil
}

// fallbackSummary is the extractive heuristic used when the model call
// fails: sentences at fixed relative positions become the summary, trigger
// words mark key points, and long title/description words become topics.
func fallbackSummary(transcript string, video model.VideoMetadata) *model.SummaryResult {
	sentences := splitSentences(transcript)

	var summary string
	if len(sentences) > 0 {
		positions := []float64{0, 0.3, 0.6, 1.0}
		picked := make([]string, 0, len(positions))
		seen := make(map[int]struct{})
		for _, pos := range positions {
			idx := int(pos * float64(len(sentences)-1))
			if _, ok := seen[idx]; ok {
				continue
			}
			seen[idx] = struct{}{}
			picked = append(picked, sentences[idx])
		}
		summary = strings.Join(picked, " ")
	}

	var keyPoints []string
	for _, s := range sentences {
		lower := strings.ToLower(s)
		for _, trigger := range []string{"important", "key", "main"} {
			if strings.Contains(lower, trigger) {
				keyPoints = append(keyPoints, s)
				break
			}
		}
		if len(keyPoints) >= 8 {
			break
		}
	}

	var topics []string
	seen := make(map[string]struct{})
	for _, w := range significantWords(video.Title + " " + video.Description) {
		if len(w) < 6 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		topics = append(topics, w)
		if len(topics) >= 6 {
			break
		}
	}

	return &model.SummaryResult{
		Summary:    summary,
		KeyPoints:  keyPoints,
		Topics:     topics,
		Confidence: fallbackConfidence,
	}
}
