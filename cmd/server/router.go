package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/realtime"
	"go.opentelemetry.io/otel/trace"
)

type routerDeps struct {
	services services
	hub      api.Streamer
	db       api.Pinger
	tracer   trace.TracerProvider
	stream   realtime.StreamOptions
	logger   *slog.Logger
}

// newRouter mounts every endpoint under /api/v1.
func newRouter(deps routerDeps) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(deps.services.jwt, deps.services.users, deps.logger)

	authHandler := api.NewAuthHandler(deps.services.auth, deps.logger)
	taskHandler := api.NewTaskHandler(deps.services.tasks, deps.logger)
	projectHandler := api.NewProjectHandler(deps.services.projects, deps.logger)
	userHandler := api.NewUserHandler(deps.services.users, deps.logger)
	realtimeHandler := api.NewRealtimeHandler(deps.hub, deps.services.subscriptions, deps.stream, deps.logger)
	healthHandler := api.NewHealthHandler(deps.db, deps.logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTraceMiddleware(deps.tracer, deps.logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		r.With(authMiddleware.AuthenticateStream).Get("/realtime/stream", realtimeHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", taskHandler.CreateTask)
				r.Get("/", taskHandler.ListTasks)
				r.Patch("/projects/{projectId}/reorder", taskHandler.ReorderTasks)
				r.Get("/{id}", taskHandler.GetTask)
				r.Patch("/{id}", taskHandler.UpdateTask)
				r.Delete("/{id}", taskHandler.DeleteTask)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", projectHandler.CreateProject)
				r.Get("/", projectHandler.ListProjects)
				r.Get("/{id}", projectHandler.GetProject)
				r.Patch("/{id}", projectHandler.UpdateProject)
				r.Delete("/{id}", projectHandler.DeleteProject)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)
				r.Get("/{id}", userHandler.GetUser)
				r.Patch("/{id}", userHandler.UpdateUser)
				r.Delete("/{id}", userHandler.DeleteUser)
			})

			r.Post("/realtime/connections/{connId}/projects/{projectId}", realtimeHandler.JoinProject)
			r.Delete("/realtime/connections/{connId}/projects/{projectId}", realtimeHandler.LeaveProject)
		})
	})

	return r
}
