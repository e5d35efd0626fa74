package middleware

import (
	"net/http"
)

// RequireQuery rejects requests whose query parameter name is missing or
// empty with 400 and message.
func RequireQuery(name, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get(name) == "" {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
