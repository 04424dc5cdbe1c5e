package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/launchpad/internal/apperr"
	"github.com/starford/launchpad/internal/catalog"
	"github.com/starford/launchpad/internal/launcher"
)

const maxSaveBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *launcher.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *launcher.Service) *Handler {
	return &Handler{svc: svc}
}

// GetConfig handles GET /api/config and GET /config/apps.json.
// It always answers 200; an unreadable catalog is served as an empty one.
//
//	@Summary		Get the apps catalog
//	@Tags			config
//	@Produce		json
//	@Success		200	{object}	AppsDocument
//	@Router			/config [get]
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, h.svc.Catalog(r.Context()))
}

// SaveConfig handles POST /api/admin/save.
//
//	@Summary		Replace the apps catalog
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AppsDocument	true	"Full catalog"
//	@Success		200		{object}	SaveResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BasicAuth
//	@Router			/admin/save [post]
func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSaveBytes)
	doc, err := catalog.Decode(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid data structure"))
		return
	}
	if err := h.svc.Save(r.Context(), doc, actor(r)); err != nil {
		switch {
		case errors.Is(err, apperr.ErrMalformed):
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid data structure"))
		case errors.Is(err, apperr.ErrMissingFields):
			writeJSON(w, http.StatusBadRequest, errorBody("Missing required fields"))
		default:
			slog.Error("save configuration failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to save configuration"))
		}
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Success: true})
}

// History handles GET /api/admin/history.
//
//	@Summary		Recent saves and uploads
//	@Tags			admin
//	@Produce		json
//	@Param			limit	query		int	false	"Max saves"
//	@Success		200		{object}	HistoryResponse
//	@Security		BasicAuth
//	@Router			/admin/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hist, err := h.svc.History(r.Context(), limit)
	if err != nil {
		slog.Error("history failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// ListUploads handles GET /api/admin/uploads.
//
//	@Summary		List stored icons
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	UploadListResponse
//	@Security		BasicAuth
//	@Router			/admin/uploads [get]
func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.Uploads(r.Context())
	if err != nil {
		slog.Error("list uploads failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, UploadListResponse{Files: files})
}
