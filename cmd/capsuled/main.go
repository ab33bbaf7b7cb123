package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/config"
	"github.com/mlindgren/capsuled/internal/finalize"
	"github.com/mlindgren/capsuled/internal/generator"
	"github.com/mlindgren/capsuled/internal/repository"
	"github.com/mlindgren/capsuled/internal/server"
	"github.com/mlindgren/capsuled/internal/session"
	"github.com/mlindgren/capsuled/internal/transcript"
	"github.com/mlindgren/capsuled/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logging
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("starting capsuled", "port", cfg.Port)

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	slog.Info("connected to database")

	// Initialize repository
	capsuleRepo := repository.NewCapsuleRepository(pool)

	// Initialize the completion model
	llm, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	defer llm.Close()
	slog.Info("completion model enabled", "provider", llm.Provider(), "model", llm.Model())

	analyzer := ai.NewInsightsAnalyzer(llm)

	// Metadata comes from the Data API when a key is configured, otherwise
	// from the watch-page scraper
	var metadata worker.MetadataFetcher
	if cfg.YouTubeAPIKey != "" {
		metadata = transcript.NewMetadataClient(cfg.YouTubeAPIKey)
		slog.Info("YouTube Data API metadata enabled")
	} else {
		metadata = transcript.NewWatchPageClient()
		slog.Warn("YouTube API key not configured, falling back to watch-page metadata")
	}

	generators := worker.Generators{
		Summary:    generator.NewSummaryGenerator(llm, analyzer, capsuleRepo),
		Flashcards: generator.NewFlashcardGenerator(llm, capsuleRepo),
		Quiz:       generator.NewQuizGenerator(llm, analyzer, capsuleRepo),
		MindMap:    generator.NewMindMapGenerator(llm, capsuleRepo),
		Notes:      generator.NewNotesOrganizer(llm, analyzer, capsuleRepo),
	}

	// Initialize and start background worker
	bgWorker := worker.New(
		capsuleRepo,
		metadata,
		transcript.NewCaptionClient(),
		generators,
		finalize.NewFinalizer(capsuleRepo),
		worker.Config{
			Interval:  cfg.WorkerInterval,
			BatchSize: cfg.WorkerBatchSize,
		},
	)
	bgWorker.Start(ctx)

	// Initialize session store (24-hour TTL for sessions)
	sessions := session.NewStore(24 * time.Hour)
	defer sessions.Close()

	// Create server
	srv := server.New(cfg, capsuleRepo, sessions)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
		}
	}()

	<-shutdownChan
	slog.Info("shutting down...")

	// Stop background worker
	bgWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
