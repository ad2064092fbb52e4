package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"ms-companion/internal/config"
	"ms-companion/internal/logger"
)

type contextKey string

const staffIDKey contextKey = "staff_id"

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// StaffMiddleware guards the staff tooling. With an OIDC issuer configured, bearer
// tokens are verified against it; otherwise a shared API key is required.
func StaffMiddleware(ctx context.Context, cfg config.StaffConfig, log *logger.Logger) (func(http.Handler) http.Handler, error) {
	if cfg.OIDCIssuer != "" {
		provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}
		verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
		log.Info("AUTH", fmt.Sprintf("Staff routes verified against OIDC issuer %s", cfg.OIDCIssuer))
		return oidcMiddleware(verifier, log), nil
	}
	if cfg.APIKey != "" {
		log.Warn("AUTH", "STAFF_OIDC_ISSUER not set, staff routes use STAFF_API_KEY")
		return apiKeyMiddleware(cfg.APIKey, log), nil
	}
	return nil, errors.New("neither STAFF_OIDC_ISSUER nor STAFF_API_KEY is set")
}

func oidcMiddleware(verifier *oidc.IDTokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}

			idToken, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("STAFF_TOKEN", fmt.Sprintf("rejected token: %v", err))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			var claims struct {
				Sub string `json:"sub"`
			}
			if err := idToken.Claims(&claims); err != nil || claims.Sub == "" {
				http.Error(w, "failed to parse claims", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), staffIDKey, claims.Sub)))
		})
	}
}

func apiKeyMiddleware(key string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				log.LogSecurity("STAFF_KEY", fmt.Sprintf("rejected request to %s", r.URL.Path))
				http.Error(w, "invalid staff credentials", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), staffIDKey, "api-key")))
		})
	}
}

// StaffID returns the authenticated staff subject, or "" outside staff routes.
func StaffID(ctx context.Context) string {
	if id, ok := ctx.Value(staffIDKey).(string); ok {
		return id
	}
	return ""
}
