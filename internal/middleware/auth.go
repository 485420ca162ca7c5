package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/eventory/internal/auth"
)

// SessionCookie carries the signed session token.
const SessionCookie = "eventory_session"

// TokenParser verifies a session token and returns the identity it carries.
type TokenParser interface {
	Parse(token string) (auth.AuthContext, error)
}

// RequireAuth validates the session cookie and populates AuthContext.
// Requests without a valid token get a 401 JSON error.
func RequireAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			ac, err := tokens.Parse(cookie.Value)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "session expired or invalid")
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin checks that the authenticated admin has the superadmin
// role.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsSuperAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "superadmin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
