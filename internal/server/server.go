package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mlindgren/capsuled/internal/config"
	"github.com/mlindgren/capsuled/internal/handler"
	"github.com/mlindgren/capsuled/internal/middleware"
	"github.com/mlindgren/capsuled/internal/repository"
	"github.com/mlindgren/capsuled/internal/session"
)

// Server represents the HTTP server
type Server struct {
	cfg      *config.Config
	repo     *repository.CapsuleRepository
	sessions *session.Store
}

// New creates a new Server
func New(cfg *config.Config, repo *repository.CapsuleRepository, sessions *session.Store) *Server {
	return &Server{
		cfg:      cfg,
		repo:     repo,
		sessions: sessions,
	}
}

// Router returns the configured chi router
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Auth handlers
	authHandler := handler.NewAuthHandler(s.cfg.APIKeyHash, s.sessions, s.cfg.SecureCookies)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/logout", authHandler.Logout)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(s.sessions, s.cfg.SecureCookies))

		capsuleHandler := handler.NewCapsuleHandler(s.repo)
		r.Post("/api/capsules", capsuleHandler.Create)
		r.Get("/api/capsules", capsuleHandler.List)
		r.Get("/api/capsules/export", capsuleHandler.ExportCSV)
		r.Get("/api/capsules/{id}", capsuleHandler.Get)
		r.Get("/api/capsules/{id}/status", capsuleHandler.Status)

		reviewHandler := handler.NewReviewHandler(s.repo)
		r.Post("/api/capsules/{id}/flashcards/{cardID}/review", reviewHandler.ReviewCard)
		r.Get("/api/capsules/{id}/notes/search", reviewHandler.SearchNotes)
	})

	return r
}
