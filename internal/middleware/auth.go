package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/notegen/notegen/internal/auth"
	"github.com/notegen/notegen/internal/model"
)

// TokenVerifier validates a bearer credential and names its subject.
type TokenVerifier interface {
	Verify(token string) (*model.AuthContext, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier TokenVerifier
}

// Auth returns a middleware that authenticates API requests.
// It reads the bearer token from the Authorization header, verifies it,
// and injects the auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err == nil {
				var authCtx *model.AuthContext
				authCtx, err = cfg.Verifier.Verify(token)
				if err == nil {
					ctx := auth.ContextWithAuth(r.Context(), authCtx)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			reason := "invalid_token"
			if errors.Is(err, auth.ErrMissingToken) {
				reason = "missing_token"
			}
			cfg.Logger.Warn("authentication failed",
				slog.String("reason", reason),
				slog.String("error", err.Error()),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			// Same body for every failure so callers cannot probe the verifier.
			writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
		})
	}
}
