package server

import (
	"net/http"

	"github.com/cloo-solutions/aliasgen/internal/api"
	"github.com/cloo-solutions/aliasgen/internal/api/handlers"
	"github.com/cloo-solutions/aliasgen/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	// Token guards every route except /health. Empty disables the check.
	Token        string
	AliasHandler *handlers.AliasHandler
	// RunHandler is nil when no database is configured.
	RunHandler *handlers.RunHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 64 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.Token))

		r.Post("/aliases", cfg.AliasHandler.Generate)

		if cfg.RunHandler != nil {
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", cfg.RunHandler.List)
				r.Get("/{id}", cfg.RunHandler.Get)
			})
		}
	})

	return r
}
