package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mlindgren/capsuled/internal/session"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "capsuled_session"

const defaultUserID = "default"

// AuthHandler handles authentication
type AuthHandler struct {
	apiKeyHash    string
	sessions      *session.Store
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(apiKeyHash string, sessions *session.Store, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		apiKeyHash:    apiKeyHash,
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

type loginRequest struct {
	APIKey string `json:"api_key"`
	UserID string `json:"user_id"`
}

// Login validates the API key and issues a session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}

	// Validate the API key with bcrypt (only happens once at login)
	if err := bcrypt.CompareHashAndPassword([]byte(h.apiKeyHash), []byte(req.APIKey)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	token, err := h.sessions.Create(req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		// No MaxAge = session cookie (expires when browser closes)
	})

	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user_id": req.UserID})
}

// Logout clears the session cookie and invalidates the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Invalidate the session server-side
	if cookie, err := r.Cookie(cookieName); err == nil {
		h.sessions.Delete(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}
