package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskboard/taskboard/internal/api"
	apiMiddleware "github.com/taskboard/taskboard/internal/api/middleware"
	"github.com/taskboard/taskboard/internal/redact"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogging(app.logger))
	if app.metrics != nil {
		r.Use(app.metrics.Middleware)
	}
	r.Use(apiMiddleware.SecurityHeaders(app.config.Server.HSTS))
	r.Use(apiMiddleware.RequestScreen(app.logger))
	if app.limiter != nil {
		r.Use(apiMiddleware.RateLimit(app.limiter, app.logger))
	}
	r.Use(app.apiKey.Authenticate)

	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	r.Route("/api", taskHandler.Routes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", redact.Attr(err))
		}
	})
	if app.metrics != nil {
		r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	}

	return r
}
