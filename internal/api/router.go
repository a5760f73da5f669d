package api

import (
	"net/http"
	"time"

	"geodir/internal/api/handler"
	"geodir/internal/api/middleware"
	"geodir/internal/app/service"
	"geodir/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	locationService *service.LocationService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token when present and puts claims in context.
	// Enforcement happens per-route in middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// User routes (authenticated; admin subset inside)
		userHandler := handler.NewUserHandler(userService, authService)
		v1.Route("/users", func(users chi.Router) {
			users.Use(middleware.Authenticator(authService))
			userHandler.RegisterRoutes(users)
		})

		// Location routes (reads public, writes authenticated)
		locationHandler := handler.NewLocationHandler(locationService, authService)
		v1.Route("/locations", locationHandler.RegisterRoutes)
	})

	return r
}
