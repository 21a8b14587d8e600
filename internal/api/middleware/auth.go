package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/synthgen/internal/api/shared"
	"github.com/phrazzld/synthgen/internal/auth"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/phrazzld/synthgen/internal/redact"
)

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	tokens auth.TokenService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given token service.
func NewAuthMiddleware(tokens auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates JWT tokens from the Authorization header and
// adds the token subject to the request context for authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.tokens.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContext(r.Context()).Error("failed to validate token",
					"error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.SubjectContextKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSubject extracts the authenticated subject from the request context.
func GetSubject(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(shared.SubjectContextKey).(string)
	return subject, ok
}
