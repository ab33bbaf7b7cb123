// Package finalize merges the pipeline's step outputs into the capsule
// record and settles its terminal status.
package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mlindgren/capsuled/internal/model"
)

// CapsuleStore is the slice of the capsule repository finalization needs
type CapsuleStore interface {
	Get(ctx context.Context, userID, capsuleID string) (*model.Capsule, error)
	SetArtifact(ctx context.Context, userID, capsuleID string, artifact model.Artifact, payload any) error
	SetProcessingStats(ctx context.Context, userID, capsuleID string, stats *model.ProcessingStats) error
	SetStatus(ctx context.Context, userID, capsuleID string, status model.CapsuleStatus, completedAt *time.Time) error
	MarkError(ctx context.Context, userID, capsuleID string, stepErr *model.StepError) error
}

// Results carries whatever the generation steps produced. Nil fields were
// not produced this run and are left untouched in the stored record.
type Results struct {
	Transcript *model.Transcript
	Summary    *model.SummaryResult
	Flashcards *model.FlashcardSet
	Quiz       *model.QuizResult
	MindMap    *model.MindMap
	Notes      *model.OrganizedNotes
}

// Finalizer closes out a capsule's processing run
type Finalizer struct {
	store CapsuleStore
	now   func() time.Time
}

// NewFinalizer creates a new Finalizer
func NewFinalizer(store CapsuleStore) *Finalizer {
	return &Finalizer{store: store, now: time.Now}
}

// Finalize merges the run's results into the stored capsule, records the
// per-step statistics, and moves the capsule to its terminal status. It
// only ever updates an existing record; a missing capsule is an error.
func (f *Finalizer) Finalize(ctx context.Context, userID, capsuleID string, results *Results) (*model.Capsule, error) {
	capsule, err := f.store.Get(ctx, userID, capsuleID)
	if err != nil {
		return nil, err
	}

	if err := f.mergeResults(ctx, userID, capsuleID, results); err != nil {
		f.markErrorBestEffort(ctx, userID, capsuleID, "finalization", err)
		return nil, err
	}

	stats := buildStats(capsule.ProcessingStatus, capsule.StartedAt, f.now().UTC())
	if err := f.store.SetProcessingStats(ctx, userID, capsuleID, stats); err != nil {
		f.markErrorBestEffort(ctx, userID, capsuleID, "finalization", err)
		return nil, err
	}

	status := terminalStatus(capsule.ProcessingStatus)
	completedAt := f.now().UTC()
	if err := f.store.SetStatus(ctx, userID, capsuleID, status, &completedAt); err != nil {
		f.markErrorBestEffort(ctx, userID, capsuleID, "finalization", err)
		return nil, err
	}

	final, err := f.store.Get(ctx, userID, capsuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload finalized capsule: %w", err)
	}

	slog.Info("capsule finalized",
		"capsule_id", capsuleID,
		"status", final.Status,
		"completed_steps", stats.CompletedSteps,
		"failed_steps", stats.FailedSteps,
	)

	return final, nil
}

// mergeResults writes each produced artifact under its own key. Keys with
// no result this run keep whatever the stored record already has.
func (f *Finalizer) mergeResults(ctx context.Context, userID, capsuleID string, results *Results) error {
	if results == nil {
		return nil
	}

	writes := []struct {
		artifact model.Artifact
		payload  any
		present  bool
	}{
		{model.ArtifactTranscript, results.Transcript, results.Transcript != nil},
		{model.ArtifactSummary, results.Summary, results.Summary != nil},
		{model.ArtifactFlashcards, results.Flashcards, results.Flashcards != nil},
		{model.ArtifactQuiz, results.Quiz, results.Quiz != nil},
		{model.ArtifactMindMap, results.MindMap, results.MindMap != nil},
		{model.ArtifactNotes, results.Notes, results.Notes != nil},
	}

	for _, w := range writes {
		if !w.present {
			continue
		}
		if err := f.store.SetArtifact(ctx, userID, capsuleID, w.artifact, w.payload); err != nil {
			return fmt.Errorf("failed to merge %s: %w", w.artifact, err)
		}
	}

	return nil
}

// markErrorBestEffort tries to persist the failure; if that secondary write
// also fails it is only logged, the original error still propagates.
func (f *Finalizer) markErrorBestEffort(ctx context.Context, userID, capsuleID, step string, cause error) {
	stepErr := &model.StepError{
		Step:      step,
		Message:   cause.Error(),
		Timestamp: f.now().UTC(),
	}
	if err := f.store.MarkError(ctx, userID, capsuleID, stepErr); err != nil {
		slog.Error("failed to record capsule error", "capsule_id", capsuleID, "error", err)
	}
}

// buildStats counts step outcomes and the elapsed wall time
func buildStats(steps map[string]model.StepStatus, startedAt, now time.Time) *model.ProcessingStats {
	stats := &model.ProcessingStats{TotalSteps: len(steps)}
	for _, status := range steps {
		switch status {
		case model.StepCompleted:
			stats.CompletedSteps++
		case model.StepFailed:
			stats.FailedSteps++
		case model.StepSkipped:
			stats.SkippedSteps++
		}
	}
	if !startedAt.IsZero() {
		stats.ElapsedSeconds = int64(now.Sub(startedAt).Seconds())
	}
	return stats
}

// terminalStatus decides ready versus error from the step outcomes. The
// capsule is ready when at least one generation step completed; a run where
// everything failed is an error.
func terminalStatus(steps map[string]model.StepStatus) model.CapsuleStatus {
	completed := 0
	for _, name := range model.GenerationSteps {
		if steps[name] == model.StepCompleted {
			completed++
		}
	}
	if completed == 0 {
		return model.CapsuleError
	}
	return model.CapsuleReady
}
