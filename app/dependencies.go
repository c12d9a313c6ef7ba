package app

import (
	"context"
	"fmt"

	"github.com/ngaland/user-service/auth"
	"github.com/ngaland/user-service/config"
	"github.com/ngaland/user-service/middleware"
	"github.com/ngaland/user-service/repositories"
	"github.com/ngaland/user-service/repositories/postgres"
	"github.com/ngaland/user-service/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Users repositories.UserRepository

	// Services
	AuthService *services.AuthService
	UserService *services.UserService

	// Middleware
	AuthMiddleware   *middleware.AuthMiddleware
	PolicyMiddleware *middleware.PolicyMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	deps.Users = postgres.NewUserRepository(db, logger)

	// The signing key is decoded once during config validation and shared
	// read-only for the process lifetime.
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(cfg.Auth.SigningKey(), cfg.Auth.TokenTTL)

	deps.UserService = services.NewUserService(deps.Users, hasher, logger)
	deps.AuthService = services.NewAuthService(deps.Users, hasher, tokens, logger)

	deps.AuthMiddleware = middleware.NewAuthMiddleware(tokens, deps.UserService, logger)
	deps.PolicyMiddleware = middleware.NewPolicyMiddleware(logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Close releases held resources
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
