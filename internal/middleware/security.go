// Package middleware provides HTTP middleware for the webcam recorder server.
package middleware

import (
	"net/http"
)

// SecurityHeaders wraps an http.Handler and adds security headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent clickjacking - deny all framing
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Permissions Policy - the capture page needs camera and microphone
		// access on our own origin; everything else stays off.
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(self), camera=(self)")

		next.ServeHTTP(w, r)
	})
}
