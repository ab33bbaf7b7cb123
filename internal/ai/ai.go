// Package ai wraps the external model APIs behind small request/response
// interfaces so generators can be tested without network access.
package ai

import "context"

// CompletionRequest describes one text-completion call
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int32
	// JSONMode asks the model for a JSON-parseable response body
	JSONMode bool
}

// Completer is the LLM boundary used by every generator
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Provider returns the provider identifier (e.g., "gemini")
	Provider() string

	// Model returns the specific model being used
	Model() string
}

// Entity is one named entity found in analyzed text
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Insights is the text-analytics result used to ground generation prompts
type Insights struct {
	KeyPhrases []string `json:"key_phrases"`
	Entities   []Entity `json:"entities"`
	Sentiment  string   `json:"sentiment"`
}

// Analyzer is the text-analytics boundary (key phrases, entities, sentiment)
type Analyzer interface {
	Analyze(ctx context.Context, text, language string) (*Insights, error)
}
