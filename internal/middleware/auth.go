package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mlindgren/capsuled/internal/session"
)

const cookieName = "capsuled_session"

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user bound to the request
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// Auth middleware validates the session token cookie and binds the
// session's user to the request context
func Auth(sessions *session.Store, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				unauthorized(w)
				return
			}

			// O(1) token lookup instead of expensive bcrypt comparison
			userID, ok := sessions.Lookup(cookie.Value)
			if !ok {
				// Invalid/expired session, clear cookie
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteStrictMode,
				})
				unauthorized(w)
				return
			}

			// Refresh session TTL on activity
			sessions.Refresh(cookie.Value)

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
