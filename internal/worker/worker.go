// Package worker runs the capsule processing pipeline in the background.
// It polls for freshly submitted capsules, fetches the video's metadata and
// captions, fans out the content generators, and finalizes each record.
package worker

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mlindgren/capsuled/internal/finalize"
	"github.com/mlindgren/capsuled/internal/generator"
	"github.com/mlindgren/capsuled/internal/model"
	"github.com/mlindgren/capsuled/internal/repository"
)

// MetadataFetcher resolves a video ID to its metadata. Implemented by the
// Data API client and by the watch-page scraper fallback.
type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (*model.VideoMetadata, error)
}

// CaptionFetcher retrieves a video's caption track
type CaptionFetcher interface {
	Fetch(ctx context.Context, videoID, language string) (*model.Transcript, error)
}

// Generators bundles the five content generators the pipeline fans out to
type Generators struct {
	Summary    *generator.SummaryGenerator
	Flashcards *generator.FlashcardGenerator
	Quiz       *generator.QuizGenerator
	MindMap    *generator.MindMapGenerator
	Notes      *generator.NotesOrganizer
}

// Worker processes capsules in the background
type Worker struct {
	repo       *repository.CapsuleRepository
	metadata   MetadataFetcher
	captions   CaptionFetcher
	generators Generators
	finalizer  *finalize.Finalizer

	interval  time.Duration
	batchSize int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Config holds worker configuration
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// New creates a new background worker
func New(
	repo *repository.CapsuleRepository,
	metadata MetadataFetcher,
	captions CaptionFetcher,
	generators Generators,
	finalizer *finalize.Finalizer,
	cfg Config,
) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 5
	}

	return &Worker{
		repo:       repo,
		metadata:   metadata,
		captions:   captions,
		generators: generators,
		finalizer:  finalizer,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the background processing loop
func (w *Worker) Start(ctx context.Context) {
	slog.Info("starting background worker", "interval", w.interval, "batch_size", w.batchSize)

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	slog.Info("stopping background worker")
	close(w.stopCh)
	w.wg.Wait()
	slog.Info("background worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) {
	capsules, err := w.repo.GetPendingProcessing(ctx, w.batchSize)
	if err != nil {
		slog.Error("failed to get pending capsules", "error", err)
		return
	}

	for i := range capsules {
		w.processCapsule(ctx, &capsules[i])
	}
}

func (w *Worker) processCapsule(ctx context.Context, capsule *model.Capsule) {
	userID, capsuleID := capsule.UserID, capsule.CapsuleID
	slog.Info("processing capsule", "capsule_id", capsuleID, "video_id", capsule.VideoID)

	meta, ok := w.runValidation(ctx, capsule)
	if !ok {
		return
	}

	transcript, ok := w.runTranscript(ctx, capsule, meta)
	if !ok {
		return
	}

	results := w.runGeneration(ctx, capsule, meta, transcript)
	results.Transcript = transcript

	if _, err := w.finalizer.Finalize(ctx, userID, capsuleID, results); err != nil {
		slog.Error("finalization failed", "capsule_id", capsuleID, "error", err)
	}
}

// runValidation fetches the video's metadata. A failure here aborts the
// pipeline: nothing downstream can run without a valid video.
func (w *Worker) runValidation(ctx context.Context, capsule *model.Capsule) (*model.VideoMetadata, bool) {
	userID, capsuleID := capsule.UserID, capsule.CapsuleID

	w.setStep(ctx, userID, capsuleID, model.StepValidation, model.StepProcessing)

	meta, err := w.metadata.Fetch(ctx, capsule.VideoID)
	if err != nil {
		slog.Warn("video validation failed", "capsule_id", capsuleID, "video_id", capsule.VideoID, "error", err)
		w.failCapsule(ctx, userID, capsuleID, model.StepValidation, err)
		return nil, false
	}

	if title := sanitizeUTF8(meta.Title); title != "" {
		if err := w.repo.SetTitle(ctx, userID, capsuleID, title); err != nil {
			slog.Error("failed to set capsule title", "capsule_id", capsuleID, "error", err)
		}
	}

	w.setStep(ctx, userID, capsuleID, model.StepValidation, model.StepCompleted)
	return meta, true
}

// runTranscript fetches and persists the caption track. Without a
// transcript the generators have nothing to work from, so a failure is
// terminal for the run.
func (w *Worker) runTranscript(ctx context.Context, capsule *model.Capsule, meta *model.VideoMetadata) (*model.Transcript, bool) {
	userID, capsuleID := capsule.UserID, capsule.CapsuleID

	w.setStep(ctx, userID, capsuleID, model.StepTranscript, model.StepProcessing)

	transcript, err := w.captions.Fetch(ctx, capsule.VideoID, "")
	if err != nil {
		slog.Warn("transcript fetch failed", "capsule_id", capsuleID, "video_id", capsule.VideoID, "error", err)
		for _, step := range model.GenerationSteps {
			w.setStep(ctx, userID, capsuleID, step, model.StepSkipped)
		}
		w.failCapsule(ctx, userID, capsuleID, model.StepTranscript, err)
		return nil, false
	}

	transcript.Text = sanitizeUTF8(transcript.Text)
	transcript.VideoTitle = meta.Title

	if err := w.repo.SetArtifact(ctx, userID, capsuleID, model.ArtifactTranscript, transcript); err != nil {
		slog.Error("failed to persist transcript", "capsule_id", capsuleID, "error", err)
		w.failCapsule(ctx, userID, capsuleID, model.StepTranscript, err)
		return nil, false
	}

	w.setStep(ctx, userID, capsuleID, model.StepTranscript, model.StepCompleted)
	return transcript, true
}

// runGeneration fans the content generators out concurrently. Steps fail
// independently; one failed generator never cancels the others.
func (w *Worker) runGeneration(ctx context.Context, capsule *model.Capsule, meta *model.VideoMetadata, transcript *model.Transcript) *finalize.Results {
	userID, capsuleID := capsule.UserID, capsule.CapsuleID

	req := &generator.Request{
		UserID:     userID,
		CapsuleID:  capsuleID,
		Video:      *meta,
		Transcript: transcript.Text,
		Segments:   transcript.Segments,
		Options:    capsule.Options,
	}

	results := &finalize.Results{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	// Summary runs first so the other generators can pull it from the
	// store when they need it.
	w.setStep(ctx, userID, capsuleID, model.StepSummary, model.StepProcessing)
	summary, err := w.generators.Summary.Generate(ctx, req)
	if err != nil {
		slog.Warn("summary generation failed", "capsule_id", capsuleID, "error", err)
		w.setStep(ctx, userID, capsuleID, model.StepSummary, model.StepFailed)
	} else {
		results.Summary = summary
		req.Summary = summary
		w.setStep(ctx, userID, capsuleID, model.StepSummary, model.StepCompleted)
	}

	g.Go(func() error {
		w.setStep(gctx, userID, capsuleID, model.StepFlashcards, model.StepProcessing)
		set, err := w.generators.Flashcards.Generate(gctx, req)
		if err != nil {
			slog.Warn("flashcard generation failed", "capsule_id", capsuleID, "error", err)
			w.setStep(gctx, userID, capsuleID, model.StepFlashcards, model.StepFailed)
			return nil
		}
		mu.Lock()
		results.Flashcards = set
		mu.Unlock()
		w.setStep(gctx, userID, capsuleID, model.StepFlashcards, model.StepCompleted)
		return nil
	})

	g.Go(func() error {
		w.setStep(gctx, userID, capsuleID, model.StepQuiz, model.StepProcessing)
		quiz, err := w.generators.Quiz.Generate(gctx, req)
		if err != nil {
			slog.Warn("quiz generation failed", "capsule_id", capsuleID, "error", err)
			w.setStep(gctx, userID, capsuleID, model.StepQuiz, model.StepFailed)
			return nil
		}
		mu.Lock()
		results.Quiz = quiz
		mu.Unlock()
		w.setStep(gctx, userID, capsuleID, model.StepQuiz, model.StepCompleted)
		return nil
	})

	g.Go(func() error {
		w.setStep(gctx, userID, capsuleID, model.StepMindMap, model.StepProcessing)
		mindMap, err := w.generators.MindMap.Generate(gctx, req)
		if err != nil {
			slog.Warn("mind map generation failed", "capsule_id", capsuleID, "error", err)
			w.setStep(gctx, userID, capsuleID, model.StepMindMap, model.StepFailed)
			return nil
		}
		mu.Lock()
		results.MindMap = mindMap
		mu.Unlock()
		w.setStep(gctx, userID, capsuleID, model.StepMindMap, model.StepCompleted)
		return nil
	})

	g.Go(func() error {
		w.setStep(gctx, userID, capsuleID, model.StepNotes, model.StepProcessing)
		notes, err := w.generators.Notes.Organize(gctx, req)
		if err != nil {
			slog.Warn("notes organization failed", "capsule_id", capsuleID, "error", err)
			w.setStep(gctx, userID, capsuleID, model.StepNotes, model.StepFailed)
			return nil
		}
		mu.Lock()
		results.Notes = notes
		mu.Unlock()
		w.setStep(gctx, userID, capsuleID, model.StepNotes, model.StepCompleted)
		return nil
	})

	g.Wait()
	return results
}

func (w *Worker) setStep(ctx context.Context, userID, capsuleID, step string, status model.StepStatus) {
	if err := w.repo.SetStepStatus(ctx, userID, capsuleID, step, status); err != nil {
		slog.Error("failed to set step status", "capsule_id", capsuleID, "step", step, "error", err)
	}
}

func (w *Worker) failCapsule(ctx context.Context, userID, capsuleID, step string, cause error) {
	w.setStep(ctx, userID, capsuleID, step, model.StepFailed)

	stepErr := &model.StepError{
		Step:      step,
		Message:   cause.Error(),
		Timestamp: time.Now().UTC(),
	}
	if err := w.repo.MarkError(ctx, userID, capsuleID, stepErr); err != nil {
		slog.Error("failed to mark capsule error", "capsule_id", capsuleID, "error", err)
	}
}

// sanitizeUTF8 removes invalid UTF-8 byte sequences from a string.
// This prevents PostgreSQL errors when storing text that may contain
// malformed characters from caption tracks or scraped pages.
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
