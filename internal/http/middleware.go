package http

import (
	"context"
	"net/http"
	"strings"

	"hisab/internal/core"
)

type contextKey string

const userKey contextKey = "current_user"

// requireAuth validates the bearer token and loads the account. The user is
// reloaded on every request so a ban takes effect immediately, not at token
// expiry.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, core.ErrUnauthorized)
			return
		}

		claims, err := s.tokens.VerifyAccess(token)
		if err != nil {
			writeError(w, err)
			return
		}

		user, err := s.repo.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, core.ErrUnauthorized)
			return
		}
		if !user.IsActive {
			writeError(w, core.ErrForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin layers a role check on top of requireAuth.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin {
			writeError(w, core.ErrForbidden)
			return
		}
		next(w, r)
	})
}

// currentUser returns the authenticated account. Only valid below
// requireAuth.
func currentUser(r *http.Request) core.User {
	user, _ := r.Context().Value(userKey).(core.User)
	return user
}
