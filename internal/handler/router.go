package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/notegen/notegen/internal/middleware"
)

// RouterConfig wires handlers and middleware into the API router.
type RouterConfig struct {
	Logger   *slog.Logger
	Health   *HealthHandler
	Notes    *NoteHandler
	Profiles *ProfileHandler
	Metrics  http.Handler // optional

	Verifier middleware.TokenVerifier
	Limiter  middleware.IPLimiter

	RateLimitEnabled bool
	RateLimitRPS     int
	RateLimitBurst   int

	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	IsDevelopment      bool
}

// NewRouter builds the chi router.
//
// Method matching runs before any route middleware, so a wrong verb is
// answered 405 without authentication. OPTIONS preflights are answered
// ahead of authentication too, and a missing noteId is rejected before
// the token is checked.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	authn := middleware.Auth(middleware.AuthConfig{Logger: cfg.Logger, Verifier: cfg.Verifier})
	requireNoteID := middleware.RequireQuery("noteId", "Missing note ID")

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:  cfg.Logger,
			Limiter: cfg.Limiter,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		}))

		r.Options("/v1/generateNote", middleware.Preflight(http.MethodGet, http.MethodPost))
		r.With(authn).Post("/v1/generateNote", cfg.Notes.Generate)

		r.Options("/v1/getNoteStatus", middleware.Preflight(http.MethodGet))
		r.With(requireNoteID, authn).Get("/v1/getNoteStatus", cfg.Notes.Status)

		r.Options("/v1/createUserProfile", middleware.Preflight(http.MethodPost))
		r.With(authn).Post("/v1/createUserProfile", cfg.Profiles.CreateUserProfile)

		r.Options("/v1/cleanupUserData", middleware.Preflight(http.MethodPost))
		r.With(authn).Post("/v1/cleanupUserData", cfg.Profiles.CleanupUserData)
	})

	return r
}
