package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// User endpoints
			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Get("/me", s.handleGetMe)
				r.Get("/{id}", s.handleGetUser)
				r.Patch("/{id}", s.handleRenameUser)
			})

			// Task endpoints
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", s.handleListTasks)
				r.Post("/", s.handleCreateTask)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetTask)
					r.Patch("/", s.handleUpdateTask)
					r.Delete("/", s.handleDeleteTask)

					r.Route("/collaborators", func(r chi.Router) {
						r.Get("/", s.handleListCollaborators)
						r.Post("/", s.handleAddCollaborator)
						r.Delete("/{userId}", s.handleRemoveCollaborator)
					})
				})
			})

			// Calendar endpoints (404 when the integration is disabled)
			r.Route("/calendar/events", func(r chi.Router) {
				r.Post("/", s.handleCreateEvent)
				r.Get("/{id}", s.handleGetEvent)
				r.Delete("/{id}", s.handleDeleteEvent)
			})

			// WebSocket task event feed
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}
