package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS wraps next with a permissive cross-origin policy suitable for a
// public market-data and order API consumed from browser clients.
func CORS(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(next)
}
