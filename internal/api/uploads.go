package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 10 << 20 // 10 MB

// allowedIconExts is the upload boundary's extension allow-list. The sink
// itself accepts anything.
var allowedIconExts = map[string]bool{".svg": true, ".png": true}

// uploadCSP keeps scripts inside uploaded SVGs from running.
const uploadCSP = "default-src 'self'; script-src 'none'; sandbox;"

// Upload handles POST /api/upload (multipart/form-data, fields "file" and
// optional "appId").
//
//	@Summary		Upload an app icon
//	@Tags			admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Icon (.svg or .png)"
//	@Param			appId	formData	string	false	"App the icon belongs to"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BasicAuth
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No file uploaded"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedIconExts[ext] {
		writeJSON(w, http.StatusBadRequest, errorBody("Only .svg and .png files are allowed"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	appID := r.FormValue("appId")
	p, err := h.svc.UploadIcon(r.Context(), appID, header.Filename, data, actor(r))
	if err != nil {
		slog.Error("upload failed",
			slog.String("app_id", appID),
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to upload file"))
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Path: p})
}

// ServeUpload handles GET /uploads/{filename}.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	abs, err := h.svc.Sink().Open(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); errors.Is(statErr, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Security-Policy", uploadCSP)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, abs)
}
