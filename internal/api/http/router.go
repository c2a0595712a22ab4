// Package http exposes the service's REST and streaming API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-browser-assistant-service/internal/app"
	"ai-browser-assistant-service/internal/observability/logging"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	h := &Handler{
		app:    application,
		logger: logging.WithComponent("http"),
	}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signin", h.signIn)
		r.Post("/auth/signout", h.signOut)

		r.Get("/usage", h.usage)

		r.Post("/tasks", h.createTask)
		r.Get("/tasks", h.listTasks)

		r.Route("/voice", func(r chi.Router) {
			r.Post("/permissions", h.voicePermissions)
			r.Post("/recordings", h.startRecording)
			r.Post("/recordings/chunks", h.pushChunk)
			r.Post("/recordings/stop", h.stopRecording)
		})
	})

	return r
}
