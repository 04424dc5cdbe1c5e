package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/launchpad/internal/launcher"
)

// NewRouter creates a chi router with all API routes, meant to be mounted
// under /api. authEnabled and password guard the admin routes.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *launcher.Service, authEnabled bool, password string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Public read side.
	r.Get("/config", h.GetConfig)
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	// Admin write side.
	r.Group(func(r chi.Router) {
		r.Use(BasicAuthMiddleware(authEnabled, password))
		r.Post("/admin/save", h.SaveConfig)
		r.Get("/admin/history", h.History)
		r.Get("/admin/uploads", h.ListUploads)
		r.Post("/upload", h.Upload)
	})

	return r
}
