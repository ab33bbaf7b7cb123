package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
)

// fakeStore is an in-memory ArtifactStore shared by the generator tests
type fakeStore struct {
	capsule   *model.Capsule
	artifacts map[model.Artifact]any
	setErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{artifacts: make(map[model.Artifact]any)}
}

func (s *fakeStore) Get(ctx context.Context, userID, capsuleID string) (*model.Capsule, error) {
	if s.capsule == nil {
		return nil, errors.New("capsule not found")
	}
	return s.capsule, nil
}

func (s *fakeStore) SetArtifact(ctx context.Context, userID, capsuleID string, artifact model.Artifact, payload any) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.artifacts[artifact] = payload
	return nil
}

// fakeCompleter returns a canned response, or fails every call
type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (c *fakeCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *fakeCompleter) Provider() string { return "fake" }
func (c *fakeCompleter) Model() string    { return "fake-model" }

// fakeAnalyzer returns fixed insights, or fails every call
type fakeAnalyzer struct {
	insights *ai.Insights
	err      error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, text, language string) (*ai.Insights, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.insights != nil {
		return a.insights, nil
	}
	return &ai.Insights{Sentiment: "neutral"}, nil
}

func longTranscript(sentences int) string {
	var out string
	for i := 0; i < sentences; i++ {
		out += fmt.Sprintf("Sentence number %d explains an idea about distributed systems. ", i)
	}
	return out
}
