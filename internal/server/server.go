// Package server provides the HTTP handler assembly for the webcam
// recorder API. It accepts all dependencies as parameters so that both
// main() and tests can build the same handler chain without route drift.
package server

import (
	"net/http"

	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/nitvob/outbrandai-webcam-recorder/internal/auth"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/config"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/middleware"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/storage"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/uploads"
)

// App holds all dependencies needed to build the HTTP handler.
type App struct {
	Verifier auth.Verifier
	Store    storage.ObjectStore
	Config   *config.Config
}

// Handler builds and returns the complete HTTP handler with all routes
// registered and middleware applied.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	// Observability endpoints (public, no auth required)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.HandleFunc("/readyz", handleReadyz)

	// Protected API routes. The auth gate runs before either handler, so
	// requests failing verification never reach the object store.
	uploadHandler := uploads.NewHandler(a.Store, a.Config.SignedURLTTL, a.Config.MaxUploadSize)
	requireAuth := middleware.RequireAuth(a.Verifier)

	mux.Handle("/api/upload", requireAuth(http.HandlerFunc(uploadHandler.HandleUpload)))
	mux.Handle("/api/past-uploads", requireAuth(http.HandlerFunc(uploadHandler.HandleList)))

	// The browser client is served from a different origin, so CORS is
	// open the way the legacy deployment ran it.
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	})

	var handler http.Handler = corsHandler(mux)
	if a.Config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(rate.Limit(a.Config.RateLimit), a.Config.RateBurst)
		handler = limiter.Middleware(handler)
	}

	return middleware.SecurityHeaders(middleware.RequestID(handler))
}
