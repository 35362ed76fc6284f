package middleware

import (
	"net/http"
)

// V1SecurityHeaders adds security headers suited to a JSON-only API
func V1SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Nothing served here is meant to be rendered or framed
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")

			// Responses depend on the caller's credentials
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Add("Vary", "Authorization, Cookie")

			next.ServeHTTP(w, r)
		})
	}
}
