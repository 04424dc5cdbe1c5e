package api

import (
	"github.com/starford/launchpad/internal/launcher"
	"github.com/starford/launchpad/internal/models"
	"github.com/starford/launchpad/internal/uploads"
)

// AppsDocument is the catalog payload (aliased from the domain layer).
type AppsDocument = models.AppsDocument

// SaveResponse is returned after a successful save.
type SaveResponse struct {
	Success bool `json:"success" example:"true" validate:"required"`
}

// UploadResponse is returned after a successful icon upload.
type UploadResponse struct {
	Path string `json:"path" example:"/uploads/docs-3f2a9c1b7d4e.png" validate:"required"`
}

// HistoryResponse is the audit view (aliased from the domain layer).
type HistoryResponse = launcher.History

// UploadListResponse wraps stored icon files.
type UploadListResponse struct {
	Files []uploads.File `json:"files" validate:"required"`
}
