package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ngaland/user-service/utils"
	"go.uber.org/zap"
)

// TokenValidator validates a bearer token string and returns its subject
type TokenValidator interface {
	Validate(tokenString string, now time.Time) (string, error)
}

// UserDirectory resolves the current roles for a subject. Roles are looked
// up on every request so that role changes apply to already-issued tokens.
type UserDirectory interface {
	RolesForSubject(ctx context.Context, subject string) ([]string, error)
}

// AuthMiddleware is the per-request authentication gate: it extracts the
// bearer token, validates it, and establishes the request identity.
type AuthMiddleware struct {
	validator TokenValidator
	directory UserDirectory
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, directory UserDirectory, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		directory: directory,
		logger:    logger,
	}
}

// RequireAuth rejects requests without a valid bearer token. The specific
// token failure (malformed, forged, expired) is logged but never returned
// to the caller; every failure is the same 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Warn("missing or malformed authorization header",
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		subject, err := m.validator.Validate(token, time.Now().UTC())
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		roles, err := m.directory.RolesForSubject(ctx, subject)
		if err != nil {
			// A valid token for a subject the store no longer knows is
			// still an authentication failure.
			m.logger.Warn("failed to resolve roles for subject",
				zap.String("subject", subject),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		identity := &Identity{Subject: subject, Roles: roles}
		ctx = WithIdentity(ctx, identity)

		m.logger.Debug("authentication successful",
			zap.String("subject", subject),
			zap.Strings("roles", roles))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
