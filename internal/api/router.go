package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/api/handlers"
	"github.com/video-stream/editor/internal/api/middleware"
	"github.com/video-stream/editor/internal/auth"
	"github.com/video-stream/editor/internal/config"
	"github.com/video-stream/editor/internal/pipeline"
	"github.com/video-stream/editor/internal/project"
	"github.com/video-stream/editor/internal/store"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config   *config.Config
	Store    store.Store
	Auth     *auth.Manager
	Projects *project.Service
	Runner   *pipeline.Runner
	Limiter  *middleware.RateLimiter
	Log      logrus.FieldLogger
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(corsOptions(d.Config.CORSOrigins)))
	r.Use(middleware.MaxBodySize(middleware.DefaultMaxBody))

	validate := d.Projects.Validator()

	// Handlers
	authHandler := handlers.NewAuthHandler(d.Auth, validate, d.Config.CookieSecure, d.Log)
	mediaHandler := handlers.NewMediaFileHandler(d.Store, validate, d.Log)
	projectHandler := handlers.NewProjectHandler(d.Projects, d.Runner, d.Log)
	processingHandler := handlers.NewProcessingHandler(d.Projects, d.Runner, d.Config.CORSOrigins, d.Log)
	healthHandler := handlers.NewHealthHandler(d.Store, d.Config.StorageBackend, d.Log)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		// Auth (public, rate limited)
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(d.Limiter.Handler)
			}
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(d.Auth, d.Log))

			r.Get("/auth/me", authHandler.Me)

			// Media files
			r.Get("/media-files", mediaHandler.List)
			r.Post("/media-files", mediaHandler.Create)
			r.Delete("/media-files/{id}", mediaHandler.Delete)

			// Projects
			r.Get("/video-projects", projectHandler.List)
			r.Post("/video-projects", projectHandler.Create)
			r.Get("/video-projects/{id}", projectHandler.Get)
			r.Patch("/video-projects/{id}", projectHandler.Update)
			r.Delete("/video-projects/{id}", projectHandler.Delete)

			// Transcript editing
			r.Post("/video-projects/{id}/transcript/toggle", projectHandler.ToggleWord)
			r.Put("/video-projects/{id}/transcript", projectHandler.ReplaceTranscript)
			r.Post("/video-projects/{id}/transcript/restore", projectHandler.RestoreAll)
			r.Get("/video-projects/{id}/transcript/stats", projectHandler.Stats)
			r.Post("/video-projects/{id}/cuts/reconcile", projectHandler.ReconcileCuts)
			r.Get("/video-projects/{id}/timeline", projectHandler.Timeline)

			// Processing
			r.Post("/video-projects/{id}/processing", processingHandler.Start)
			r.Get("/video-projects/{id}/processing", processingHandler.Status)
			r.Delete("/video-projects/{id}/processing", processingHandler.Cancel)
			r.Get("/video-projects/{id}/processing/ws", processingHandler.Stream)
		})
	})

	return r
}

// corsOptions lets the session cookie cross origins only when explicit
// origins are configured; a wildcard disables credentials.
func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCreds := true
	for _, o := range origins {
		if o == "*" {
			allowCreds = false
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}
