package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ngaland/user-service/app"
	"github.com/ngaland/user-service/handlers"
	"github.com/ngaland/user-service/middleware"
	"github.com/ngaland/user-service/models"
)

// SetupRoutes configures all application routes and middleware.
// Authorization requirements are declared here, per operation, and
// evaluated by the policy middleware.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	userHandler := handlers.NewUserHandler(deps.UserService, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Logger)

	policy := deps.PolicyMiddleware

	// Health check endpoints (public)
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// Authentication (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
	})

	// User management
	r.Route("/api/users", func(r chi.Router) {
		// Self-registration is public
		r.Post("/", userHandler.HandleCreate)

		// Everything else requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.With(policy.Require(middleware.RoleIn(models.RoleAdmin))).
				Get("/", userHandler.HandleList)

			r.With(policy.RequireOwnerOr(userHandler.ResolveOwner, models.RoleAdmin)).
				Get("/{id}", userHandler.HandleGet)

			r.With(policy.Require(middleware.RoleIn(models.RoleAdmin))).
				Put("/{id}", userHandler.HandleUpdate)

			r.With(policy.Require(middleware.RoleIn(models.RoleAdmin))).
				Delete("/{id}", userHandler.HandleDelete)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
