package middleware

import (
	"net/http"
	"strings"
)

// Headers browsers may send on API calls.
const corsAllowedHeaders = "Content-Type, Authorization"

// CORS returns a middleware that adds Access-Control-Allow-Origin to every
// response whose Origin is allowed. "*" in allowedOrigins admits any origin
// and is echoed literally; no credentials are ever allowed.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := false
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			wildcard = true
			continue
		}
		originSet[strings.ToLower(origin)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case r.Header.Get("Origin") != "":
				origin := r.Header.Get("Origin")
				w.Header().Add("Vary", "Origin")
				if originSet[strings.ToLower(origin)] {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Preflight answers an OPTIONS request with 204 and the given methods.
// It is mounted per route, ahead of authentication, so preflights never
// reach the quota ledger.
func Preflight(methods ...string) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", allow)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		w.Header().Set("Access-Control-Max-Age", "3600")
		w.WriteHeader(http.StatusNoContent)
	}
}
