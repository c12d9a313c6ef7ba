package services

import (
	"context"
	"errors"
	"time"

	"github.com/ngaland/user-service/auth"
	"github.com/ngaland/user-service/repositories"
	"go.uber.org/zap"
)

// AuthService authenticates users and issues bearer tokens. It holds no
// per-session state; a successful login is fully represented by the token.
type AuthService struct {
	users  repositories.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repositories.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Login verifies the email/password pair and returns a signed token.
// Unknown email and wrong password are indistinguishable to the caller;
// both surface as ErrCredentialMismatch.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Info("login rejected: unknown email")
			return "", ErrCredentialMismatch
		}
		return "", WrapInternal("failed to look up user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return "", WrapInternal("failed to verify credentials", err)
	}
	if !ok {
		s.logger.Info("login rejected: credential mismatch", zap.String("subject", user.Email))
		return "", ErrCredentialMismatch
	}

	token, err := s.tokens.Issue(user.Email, time.Now().UTC())
	if err != nil {
		return "", WrapInternal("failed to issue token", err)
	}

	s.logger.Info("login succeeded", zap.String("subject", user.Email))
	return token, nil
}
