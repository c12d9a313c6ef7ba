package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ngaland/user-service/auth"
	"github.com/ngaland/user-service/models"
	"github.com/ngaland/user-service/repositories"
	"go.uber.org/zap"
)

// CreateUserInput carries the fields accepted when registering a user
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

// UpdateUserInput carries the fields accepted when updating a user.
// Nil/empty fields are left untouched.
type UpdateUserInput struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

// UserService implements user management on top of the user repository.
// Passwords are hashed before they reach storage and never logged.
type UserService struct {
	users  repositories.UserRepository
	hasher *auth.PasswordHasher
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, hasher *auth.PasswordHasher, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// Create registers a new user. The email must be unused; roles are
// canonicalized and default to ROLE_USER when none are supplied.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, WrapInternal("failed to check email", err)
	}
	if exists {
		return nil, ErrDuplicateEmail.WithDetail("email", in.Email)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.Name, in.Email, hash, in.Roles)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, WrapInternal("failed to create user", err)
	}

	s.logger.Info("user created",
		zap.String("id", user.ID.String()),
		zap.String("email", user.Email),
		zap.Strings("roles", user.Roles))
	return user, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.WithDetail("id", id.String())
		}
		return nil, WrapInternal("failed to get user", err)
	}
	return user, nil
}

// RolesForSubject returns the current canonical roles for a subject
// (email). The authentication gate calls this on every request so role
// changes apply to tokens issued before the change.
func (s *UserService) RolesForSubject(ctx context.Context, subject string) ([]string, error) {
	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to resolve subject", err)
	}
	return user.Roles, nil
}

// List retrieves all users
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list users", err)
	}
	return users, nil
}

// Update applies a partial update to an existing user. A provided password
// is re-hashed; provided roles are re-canonicalized.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.WithDetail("id", id.String())
		}
		return nil, WrapInternal("failed to get user", err)
	}

	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Email != "" && in.Email != user.Email {
		exists, err := s.users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, WrapInternal("failed to check email", err)
		}
		if exists {
			return nil, ErrDuplicateEmail.WithDetail("email", in.Email)
		}
		user.Email = in.Email
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, WrapInternal("failed to hash password", err)
		}
		user.PasswordHash = hash
	}
	if len(in.Roles) > 0 {
		user.Roles = models.CanonicalRoles(in.Roles)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.WithDetail("id", id.String())
		}
		return nil, WrapInternal("failed to update user", err)
	}

	s.logger.Info("user updated", zap.String("id", user.ID.String()))
	return user, nil
}

// Delete removes a user by ID
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound.WithDetail("id", id.String())
		}
		return WrapInternal("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("id", id.String()))
	return nil
}
