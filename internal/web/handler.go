// Package web renders the launcher and admin pages.
package web

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/launchpad/internal/launcher"
	"github.com/starford/launchpad/internal/models"
)

var knownIconBgs = map[string]bool{
	models.IconBgPrimary:   true,
	models.IconBgSecondary: true,
	models.IconBgAccent:    true,
	models.IconBgNeutral:   true,
}

// IconBg maps a stored label to a CSS class suffix. Unknown labels render
// as neutral.
func IconBg(label string) string {
	if knownIconBgs[label] {
		return label
	}
	return models.IconBgNeutral
}

// Handler serves the HTML pages.
type Handler struct {
	svc   *launcher.Service
	pages *template.Template
}

// New parses the embedded templates.
func New(svc *launcher.Service) (*Handler, error) {
	pages, err := template.New("").Funcs(template.FuncMap{
		"iconBg": IconBg,
	}).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, pages: pages}, nil
}

// Register mounts the pages on r. The admin page is wrapped with auth.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/", h.Launcher)
	r.With(auth).Get("/admin", h.Admin)
	r.Handle("/static/*", h.Static())
}

type launcherPage struct {
	Apps []models.AppEntry
}

// Launcher renders the app grid, or the empty state when no apps are
// configured.
func (h *Handler) Launcher(w http.ResponseWriter, r *http.Request) {
	doc := h.svc.Catalog(r.Context())
	h.render(w, "launcher.html", launcherPage{Apps: doc.Apps})
}

type adminPage struct {
	IconBgs []string
}

// Admin renders the editor page. Data is fetched client-side.
func (h *Handler) Admin(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "admin.html", adminPage{IconBgs: []string{
		models.IconBgPrimary, models.IconBgSecondary, models.IconBgAccent, models.IconBgNeutral,
	}})
}

// Static serves the embedded assets under /static/.
func (h *Handler) Static() http.Handler {
	sub, _ := fs.Sub(files, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("render page", slog.String("page", name), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
