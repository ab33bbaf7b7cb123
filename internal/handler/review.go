package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mlindgren/capsuled/internal/generator"
	"github.com/mlindgren/capsuled/internal/middleware"
	"github.com/mlindgren/capsuled/internal/model"
	"github.com/mlindgren/capsuled/internal/repository"
	"github.com/mlindgren/capsuled/internal/srs"
)

// ReviewHandler serves the study surface: flashcard reviews and note search
type ReviewHandler struct {
	repo CapsuleRepo
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(repo CapsuleRepo) *ReviewHandler {
	return &ReviewHandler{repo: repo}
}

type reviewRequest struct {
	Quality int `json:"quality"` // 0-5 recall rating
}

// ReviewCard records one flashcard review and advances its schedule
func (h *ReviewHandler) ReviewCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	capsuleID := chi.URLParam(r, "id")
	cardID := chi.URLParam(r, "cardID")

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quality < 0 || req.Quality > srs.MaxQuality {
		writeError(w, http.StatusBadRequest, "quality must be between 0 and 5")
		return
	}

	capsule, err := h.repo.Get(ctx, userID, capsuleID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "capsule not found")
		return
	}
	if err != nil {
		slog.Error("failed to get capsule", "capsule_id", capsuleID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get capsule")
		return
	}

	set := capsule.LearningContent.Flashcards
	if set == nil {
		writeError(w, http.StatusNotFound, "capsule has no flashcards")
		return
	}

	var card *model.Flashcard
	for i := range set.Cards {
		if set.Cards[i].ID == cardID {
			card = &set.Cards[i]
			break
		}
	}
	if card == nil {
		writeError(w, http.StatusNotFound, "flashcard not found")
		return
	}

	card.Schedule = srs.Review(card.Schedule, req.Quality, time.Now().UTC())

	if err := h.repo.SetArtifact(ctx, userID, capsuleID, model.ArtifactFlashcards, set); err != nil {
		slog.Error("failed to save review", "capsule_id", capsuleID, "card_id", cardID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save review")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"card_id":  card.ID,
		"schedule": card.Schedule,
	})
}

// SearchNotes runs a keyword search over a capsule's organized notes
func (h *ReviewHandler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	capsuleID := chi.URLParam(r, "id")

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	capsule, err := h.repo.Get(ctx, userID, capsuleID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "capsule not found")
		return
	}
	if err != nil {
		slog.Error("failed to get capsule", "capsule_id", capsuleID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get capsule")
		return
	}

	notes := capsule.LearningContent.Notes
	if notes == nil {
		writeError(w, http.StatusNotFound, "capsule has no notes")
		return
	}

	opts := generator.SearchOptions{
		IncludeContent: r.URL.Query().Get("include_content") != "false",
	}
	if maxStr := r.URL.Query().Get("max"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil {
			opts.MaxResults = max
		}
	}

	hits := generator.SearchNotes(notes, query, opts)
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": hits, "count": len(hits)})
}
