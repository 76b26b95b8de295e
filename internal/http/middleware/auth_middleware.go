package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/http/response"
	"github.com/gamexhub/gamex-panel/internal/security"
	"github.com/gamexhub/gamex-panel/internal/service"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
	TokenContextKey  contextKey = "access_token"
)

// Authenticate resolves the bearer token into claims. A missing or revoked
// token is 401, a token that fails verification is 403.
func Authenticate(auth service.AccessTokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "missing access token")
				return
			}
			claims, err := auth.Authenticate(r.Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrTokenRevoked):
				response.Error(w, r, http.StatusUnauthorized, "token has been revoked")
				return
			case errors.Is(err, service.ErrInvalidAccessToken):
				response.Error(w, r, http.StatusForbidden, "invalid access token")
				return
			default:
				slog.ErrorContext(r.Context(), "blacklist lookup failed", "error", err)
				response.InternalError(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			ctx = context.WithValue(ctx, TokenContextKey, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles must run after Authenticate.
func RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "missing access token")
				return
			}
			if !slices.Contains(roles, claims.Role) {
				response.Error(w, r, http.StatusForbidden, "access denied for role "+string(claims.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(TokenContextKey).(string)
	return t, ok && t != ""
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
