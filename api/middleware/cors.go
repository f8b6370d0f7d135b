package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the browser origin policy for the POS and operator
// dashboards. Replay and throttling headers are exposed so the clients can
// react to them.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, replayHeader, "Retry-After"},
		MaxAge:         300,
	})
}
