package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mlindgren/capsuled/internal/middleware"
	"github.com/mlindgren/capsuled/internal/model"
	"github.com/mlindgren/capsuled/internal/repository"
	"github.com/mlindgren/capsuled/internal/transcript"
	"github.com/mlindgren/capsuled/internal/urlutil"
)

// CapsuleHandler handles capsule submission and retrieval
type CapsuleHandler struct {
	repo CapsuleRepo
}

// NewCapsuleHandler creates a new CapsuleHandler
func NewCapsuleHandler(repo CapsuleRepo) *CapsuleHandler {
	return &CapsuleHandler{repo: repo}
}

type createCapsuleRequest struct {
	URL            string                  `json:"url"`
	AllowDuplicate bool                    `json:"allow_duplicate"`
	Options        model.GenerationOptions `json:"options"`
}

type duplicateResponse struct {
	Duplicate bool      `json:"duplicate"`
	CapsuleID string    `json:"capsule_id"`
	Title     string    `json:"title,omitempty"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// Create accepts a video URL and queues a new capsule for processing
func (h *CapsuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req createCapsuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	videoID := transcript.ExtractVideoID(rawURL)
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "not a recognized YouTube URL")
		return
	}

	normalizedURL := rawURL
	if normalized, err := urlutil.NormalizeURL(rawURL); err == nil {
		normalizedURL = normalized
	}

	if !req.AllowDuplicate {
		existing, err := h.repo.GetLatestByNormalizedURL(ctx, userID, normalizedURL)
		if err != nil {
			slog.Error("failed to check duplicates", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to check duplicates")
			return
		}
		if existing != nil {
			writeJSON(w, http.StatusConflict, duplicateResponse{
				Duplicate: true,
				CapsuleID: existing.CapsuleID,
				Title:     existing.Title,
				Status:    string(existing.Status),
				StartedAt: existing.StartedAt,
			})
			return
		}
	}

	now := time.Now().UTC()
	capsule := &model.Capsule{
		UserID:           userID,
		CapsuleID:        uuid.NewString(),
		VideoID:          videoID,
		VideoURL:         rawURL,
		NormalizedURL:    normalizedURL,
		Status:           model.CapsuleProcessing,
		ProcessingStatus: pendingSteps(),
		Options:          req.Options,
		StartedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.repo.Create(ctx, capsule); err != nil {
		slog.Error("failed to create capsule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create capsule")
		return
	}

	slog.Info("capsule queued", "capsule_id", capsule.CapsuleID, "video_id", videoID)
	writeJSON(w, http.StatusAccepted, capsule)
}

// pendingSteps returns the initial step map for a fresh capsule
func pendingSteps() map[string]model.StepStatus {
	steps := map[string]model.StepStatus{
		model.StepValidation: model.StepPending,
		model.StepTranscript: model.StepPending,
	}
	for _, name := range model.GenerationSteps {
		steps[name] = model.StepPending
	}
	return steps
}

// List returns the user's capsules, newest first
func (h *CapsuleHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	capsules, err := h.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		slog.Error("failed to list capsules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list capsules")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"capsules": capsules, "count": len(capsules)})
}

// Get returns one capsule with its full learning content
func (h *CapsuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	capsuleID := chi.URLParam(r, "id")

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

	writeJSON(w, http.StatusOK, capsule)
}

type statusResponse struct {
	CapsuleID        string                      `json:"capsule_id"`
	Status           model.CapsuleStatus         `json:"status"`
	ProcessingStatus map[string]model.StepStatus `json:"processing_status"`
	Stats            *model.ProcessingStats      `json:"stats,omitempty"`
	Error            *model.StepError            `json:"error,omitempty"`
	CompletedAt      *time.Time                  `json:"completed_at,omitempty"`
}

// Status returns a lightweight view for polling clients
func (h *CapsuleHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	capsuleID := chi.URLParam(r, "id")

	capsule, err := h.repo.Get(ctx, userID, capsuleID)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "capsule not found")
		return
	}
	if err != nil {
		slog.Error("failed to get capsule status", "capsule_id", capsuleID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get capsule")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		CapsuleID:        capsule.CapsuleID,
		Status:           capsule.Status,
		ProcessingStatus: capsule.ProcessingStatus,
		Stats:            capsule.ProcessingStats,
		Error:            capsule.Error,
		CompletedAt:      capsule.CompletedAt,
	})
}
