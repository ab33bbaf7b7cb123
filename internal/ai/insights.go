package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const maxAnalyzeChars = 6000

// InsightsAnalyzer implements Analyzer on top of a JSON-mode completion
type InsightsAnalyzer struct {
	completer Completer
}

// NewInsightsAnalyzer creates an analyzer backed by the given completer
func NewInsightsAnalyzer(completer Completer) *InsightsAnalyzer {
	return &InsightsAnalyzer{completer: completer}
}

// Analyze extracts key phrases, named entities, and sentiment from text
func (a *InsightsAnalyzer) Analyze(ctx context.Context, text, language string) (*Insights, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text to analyze")
	}
	if len(text) > maxAnalyzeChars {
		text = text[:maxAnalyzeChars]
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following text and return ONLY a valid JSON object with these fields:\n")
	sb.WriteString(`{"key_phrases": ["up to 10 most important phrases"], `)
	sb.WriteString(`"entities": [{"text": "entity", "type": "PERSON|ORGANIZATION|LOCATION|EVENT|OTHER"}], `)
	sb.WriteString(`"sentiment": "positive|negative|neutral|mixed"}`)
	sb.WriteString("\n\n")
	if language != "" {
		sb.WriteString("Language: ")
		sb.WriteString(language)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Text:\n")
	sb.WriteString(text)

	raw, err := a.completer.Complete(ctx, CompletionRequest{
		Prompt:      sb.String(),
		Temperature: 0.1,
		MaxTokens:   1024,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("insights analysis failed: %w", err)
	}

	var insights Insights
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		return nil, fmt.Errorf("failed to parse insights response: %w", err)
	}

	return &insights, nil
}
