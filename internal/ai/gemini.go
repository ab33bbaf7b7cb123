package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiProvider     = "gemini"
	geminiDefaultModel = "gemini-2.5-flash-lite"
)

// GeminiClient implements Completer using Google's Gemini API
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a new Gemini completion client
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = geminiDefaultModel
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *GeminiClient) Provider() string { return geminiProvider }
func (g *GeminiClient) Model() string    { return g.modelName }

func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := g.client.GenerativeModel(g.modelName)

	temp := req.Temperature
	model.Temperature = &temp

	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		model.MaxOutputTokens = &maxTokens
	}

	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}

	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("no text generated")
	}

	if req.JSONMode {
		text = StripCodeFence(text)
	}

	return text, nil
}

// Close closes the Gemini client
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var result strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.WriteString(string(text))
		}
	}

	return strings.TrimSpace(result.String())
}

// StripCodeFence removes a markdown code fence the model sometimes wraps
// around JSON output despite the response MIME type.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
