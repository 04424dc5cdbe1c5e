// Package catalog owns the on-disk apps document: seeding, loading,
// validation and whole-document replacement.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/launchpad/internal/models"
	"github.com/starford/launchpad/internal/storage"
)

// Default returns the document written when no backing file exists yet.
func Default() models.AppsDocument {
	return models.AppsDocument{
		Apps: []models.AppEntry{
			{
				ID:               "docs",
				Title:            "Documentation",
				ShortDescription: "Learn everything about launchpad",
				LongDescription:  "Documentation covering the launcher page, the admin panel and the apps.json format.",
				Icon:             "/static/file.svg",
				URL:              "https://github.com/starford/launchpad",
				IconBg:           models.IconBgPrimary,
			},
		},
	}
}

// Store reads and replaces the backing file. It keeps no copy of the
// document between calls and takes no locks.
type Store struct {
	fs     storage.Provider
	name   string
	logger *slog.Logger
}

// NewStore binds a store to the backing file at path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fs, err := storage.NewFS(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &Store{fs: fs, name: filepath.Base(path), logger: logger}, nil
}

// Path returns the absolute path of the backing file.
func (s *Store) Path() string {
	abs, _ := s.fs.Abs(s.name)
	return abs
}

// EnsureInitialized writes the default document if the backing file is
// missing. An existing file is never touched, valid or not.
func (s *Store) EnsureInitialized(_ context.Context) error {
	ok, err := s.fs.Exists(s.name)
	if err != nil {
		return fmt.Errorf("catalog: check backing file: %w", err)
	}
	if ok {
		return nil
	}
	data, err := encode(Default())
	if err != nil {
		return err
	}
	if err := s.fs.Write(s.name, data); err != nil {
		return fmt.Errorf("catalog: seed default: %w", err)
	}
	s.logger.Info("catalog: seeded default document", slog.String("path", s.Path()))
	return nil
}

// Load returns the persisted document. Any failure yields an empty
// document; the cause is logged, never returned.
func (s *Store) Load(_ context.Context) models.AppsDocument {
	empty := models.AppsDocument{Apps: []models.AppEntry{}}

	data, err := s.fs.Read(s.name)
	if err != nil {
		s.logger.Warn("catalog: load failed", slog.String("error", err.Error()))
		return empty
	}
	var doc models.AppsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("catalog: parse failed",
			slog.String("path", s.Path()),
			slog.String("error", err.Error()))
		return empty
	}
	if doc.Apps == nil {
		doc.Apps = []models.AppEntry{}
	}
	return doc
}

// Replace overwrites the backing file with doc in full.
func (s *Store) Replace(_ context.Context, doc models.AppsDocument) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	if err := s.fs.Write(s.name, data); err != nil {
		return fmt.Errorf("catalog: replace: %w", err)
	}
	return nil
}

// encode renders doc with two-space indentation and an empty array for
// a nil Apps slice. HTML characters are written literally.
func encode(doc models.AppsDocument) ([]byte, error) {
	if doc.Apps == nil {
		doc.Apps = []models.AppEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
