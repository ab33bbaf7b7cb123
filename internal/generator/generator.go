// Package generator builds the learning artifacts for a capsule: summary,
// quiz, flashcards, mind map, and organized notes. Each generator prompts
// the completion model for structured JSON and falls back to a deterministic
// heuristic when the model call fails or produces unparseable output.
package generator

import (
	"context"
	"errors"

	"github.com/mlindgren/capsuled/internal/model"
)

// Input-validation errors, raised before any external call is made
var (
	ErrMissingInput    = errors.New("no transcript or summary available")
	ErrEmptyContent    = errors.New("content is empty")
	ErrContentTooShort = errors.New("content is too short to process")
)

// minContentChars is the floor below which content is rejected outright
const minContentChars = 50

// promptTranscriptCap bounds how much transcript text is embedded in a prompt
const promptTranscriptCap = 8000

// ArtifactStore is the slice of the capsule repository the generators need.
// Defined here so tests can substitute an in-memory implementation.
type ArtifactStore interface {
	Get(ctx context.Context, userID, capsuleID string) (*model.Capsule, error)
	SetArtifact(ctx context.Context, userID, capsuleID string, artifact model.Artifact, payload any) error
}

// Request is the job-scoped input shared by every generator. Transcript and
// Summary may be empty; generators fall back to a capsule lookup keyed by
// (UserID, CapsuleID) before failing with ErrMissingInput.
type Request struct {
	UserID    string
	CapsuleID string
	Video     model.VideoMetadata

	Transcript string
	Segments   []model.TranscriptSegment
	Summary    *model.SummaryResult

	Options model.GenerationOptions
}

// resolveTranscript returns the request transcript, falling back to the
// persisted artifact. Returns ErrMissingInput when neither exists.
func resolveTranscript(ctx context.Context, store ArtifactStore, req *Request) (string, []model.TranscriptSegment, error) {
	if req.Transcript != "" {
		return req.Transcript, req.Segments, nil
	}

	capsule, err := store.Get(ctx, req.UserID, req.CapsuleID)
	if err != nil {
		return "", nil, ErrMissingInput
	}
	if t := capsule.LearningContent.Transcript; t != nil && t.Text != "" {
		return t.Text, t.Segments, nil
	}

	return "", nil, ErrMissingInput
}

// resolveSummary returns the request summary, falling back to the persisted
// artifact. Returns nil when neither exists; callers decide whether that is
// fatal.
func resolveSummary(ctx context.Context, store ArtifactStore, req *Request) *model.SummaryResult {
	if req.Summary != nil {
		return req.Summary
	}

	capsule, err := store.Get(ctx, req.UserID, req.CapsuleID)
	if err != nil {
		return nil
	}
	return capsule.LearningContent.Summary
}
