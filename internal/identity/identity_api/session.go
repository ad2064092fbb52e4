package identity_api

import (
	"context"
	"net/http"

	"ms-companion/internal/auth"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

type contextKey string

const sessionKey contextKey = "session"

type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) *models.Session
}

// SessionMiddleware resolves the caller's session once per request. Requests
// without a valid session continue anonymously.
func SessionMiddleware(resolver SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractTokenFromRequest(r, cookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if session := resolver.CurrentSession(r.Context(), token); session != nil {
				r = r.WithContext(WithSession(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			utils.WriteError(w, http.StatusUnauthorized, utils.NewUserError(utils.ErrUnauthenticated, "Not authenticated", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns nil for anonymous requests.
func SessionFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}
