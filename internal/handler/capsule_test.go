package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/capsuled/internal/model"
	"github.com/mlindgren/capsuled/internal/repository"
)

// mockRepo implements CapsuleRepo in memory for handler tests
type mockRepo struct {
	capsules map[string]*model.Capsule
	byURL    map[string]*model.Capsule
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		capsules: make(map[string]*model.Capsule),
		byURL:    make(map[string]*model.Capsule),
	}
}

func (m *mockRepo) Create(ctx context.Context, c *model.Capsule) error {
	m.capsules[c.CapsuleID] = c
	m.byURL[c.NormalizedURL] = c
	return nil
}

func (m *mockRepo) Get(ctx context.Context, userID, capsuleID string) (*model.Capsule, error) {
	c, ok := m.capsules[capsuleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (m *mockRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Capsule, error) {
	var out []model.Capsule
	for _, c := range m.capsules {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockRepo) GetLatestByNormalizedURL(ctx context.Context, userID, normalizedURL string) (*model.Capsule, error) {
	return m.byURL[normalizedURL], nil
}

func (m *mockRepo) SetArtifact(ctx context.Context, userID, capsuleID string, artifact model.Artifact, payload any) error {
	c, ok := m.capsules[capsuleID]
	if !ok {
		return repository.ErrNotFound
	}
	switch artifact {
	case model.ArtifactFlashcards:
		c.LearningContent.Flashcards = payload.(*model.FlashcardSet)
	}
	return nil
}

func testRouter(repo CapsuleRepo) http.Handler {
	r := chi.NewRouter()
	capsuleHandler := NewCapsuleHandler(repo)
	r.Post("/api/capsules", capsuleHandler.Create)
	r.Get("/api/capsules/{id}", capsuleHandler.Get)
	r.Get("/api/capsules/{id}/status", capsuleHandler.Status)

	reviewHandler := NewReviewHandler(repo)
	r.Post("/api/capsules/{id}/flashcards/{cardID}/review", reviewHandler.ReviewCard)
	r.Get("/api/capsules/{id}/notes/search", reviewHandler.SearchNotes)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCapsule(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	router := testRouter(repo)

	rec := postJSON(t, router, "/api/capsules", map[string]any{
		"url":     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"options": map[string]any{"max_cards": 15, "include_images": true},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created model.Capsule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "dQw4w9WgXcQ", created.VideoID)
	assert.Equal(t, model.CapsuleProcessing, created.Status)
	assert.Equal(t, model.StepPending, created.ProcessingStatus[model.StepValidation])
	assert.Len(t, created.ProcessingStatus, 2+len(model.GenerationSteps))
	assert.Equal(t, 15, created.Options.MaxCards)
	assert.True(t, created.Options.IncludeImages)
}

func TestCreateCapsuleRejectsNonYouTubeURL(t *testing.T) {
	t.Parallel()

	router := testRouter(newMockRepo())

	rec := postJSON(t, router, "/api/capsules", map[string]any{"url": "https://example.com/video"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/capsules", map[string]any{"url": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCapsuleDuplicateDetection(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	router := testRouter(repo)

	url := "https://youtu.be/dQw4w9WgXcQ"
	rec := postJSON(t, router, "/api/capsules", map[string]any{"url": url})
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Same URL again trips the duplicate check
	rec = postJSON(t, router, "/api/capsules", map[string]any{"url": url})
	require.Equal(t, http.StatusConflict, rec.Code)

	var dup duplicateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dup))
	assert.True(t, dup.Duplicate)
	assert.NotEmpty(t, dup.CapsuleID)

	// allow_duplicate bypasses the check
	rec = postJSON(t, router, "/api/capsules", map[string]any{"url": url, "allow_duplicate": true})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGetCapsuleNotFound(t *testing.T) {
	t.Parallel()

	router := testRouter(newMockRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/capsules/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCapsuleStatusView(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	completed := time.Now().UTC()
	repo.capsules["c1"] = &model.Capsule{
		CapsuleID:        "c1",
		Status:           model.CapsuleReady,
		ProcessingStatus: map[string]model.StepStatus{model.StepSummary: model.StepCompleted},
		CompletedAt:      &completed,
	}

	router := testRouter(repo)
	req := httptest.NewRequest(http.MethodGet, "/api/capsules/c1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, model.CapsuleReady, status.Status)
	assert.Equal(t, model.StepCompleted, status.ProcessingStatus[model.StepSummary])
}

func TestReviewCard(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	repo.capsules["c1"] = &model.Capsule{
		CapsuleID: "c1",
		Status:    model.CapsuleReady,
		LearningContent: model.LearningContent{
			Flashcards: &model.FlashcardSet{
				Cards: []model.Flashcard{{
					ID:       "card-1",
					Front:    "What is a quorum?",
					Schedule: model.ReviewSchedule{Interval: 1, EaseFactor: 2.5},
				}},
			},
		},
	}

	router := testRouter(repo)

	rec := postJSON(t, router, "/api/capsules/c1/flashcards/card-1/review", map[string]any{"quality": 4})
	require.Equal(t, http.StatusOK, rec.Code)

	card := repo.capsules["c1"].LearningContent.Flashcards.Cards[0]
	assert.Equal(t, 1, card.Schedule.Repetitions)
	require.Len(t, card.Schedule.History, 1)
	assert.Equal(t, 4, card.Schedule.History[0].Quality)

	rec = postJSON(t, router, "/api/capsules/c1/flashcards/card-1/review", map[string]any{"quality": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/api/capsules/c1/flashcards/missing/review", map[string]any{"quality": 4})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchNotesEndpoint(t *testing.T) {
	t.Parallel()

	repo := newMockRepo()
	repo.capsules["c1"] = &model.Capsule{
		CapsuleID: "c1",
		Status:    model.CapsuleReady,
		LearningContent: model.LearningContent{
			Notes: &model.OrganizedNotes{
				Sections: []model.NoteSection{
					{Title: "Replication basics", Content: "Entries flow from the leader."},
					{Title: "Elections", Content: "Votes decide the next leader."},
				},
			},
		},
	}

	router := testRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/capsules/c1/notes/search?q=replication", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []model.NotesSearchHit `json:"results"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Replication basics", body.Results[0].Title)

	// Missing query is a client error
	req = httptest.NewRequest(http.MethodGet, "/api/capsules/c1/notes/search", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
