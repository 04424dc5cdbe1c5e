// Package launcher coordinates the catalog store, icon uploads, the audit
// log and change notifications.
package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/launchpad/internal/apperr"
	"github.com/starford/launchpad/internal/audit"
	"github.com/starford/launchpad/internal/catalog"
	"github.com/starford/launchpad/internal/checksum"
	"github.com/starford/launchpad/internal/models"
	"github.com/starford/launchpad/internal/uploads"
)

// Notifier receives change notifications. *sse.Broker satisfies it.
type Notifier interface {
	PublishCatalogChange(source string)
	PublishIconUpload(path string)
}

// Change sources reported to the Notifier.
const (
	SourceSave = "save"
	SourceFile = "file"
)

// History is the audit view returned to the admin panel.
type History struct {
	Saves   []audit.SaveRow   `json:"saves"`
	Uploads []audit.UploadRow `json:"uploads"`
}

// Service is safe for concurrent use; it holds no document state between
// calls, so overlapping read/modify/replace cycles are last-write-wins.
type Service struct {
	store  *catalog.Store
	sink   *uploads.Sink
	log    audit.Log
	notify Notifier
	logger *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithAudit records saves and uploads in log.
func WithAudit(log audit.Log) Option {
	return func(s *Service) { s.log = log }
}

// WithNotifier publishes change events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new launcher service.
func NewService(store *catalog.Store, sink *uploads.Sink, opts ...Option) *Service {
	s := &Service{store: store, sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sink returns the upload sink, for serving stored files.
func (s *Service) Sink() *uploads.Sink { return s.sink }

// Catalog seeds the backing file if needed and returns the current
// document. It never fails; problems yield an empty document.
func (s *Service) Catalog(ctx context.Context) models.AppsDocument {
	if err := s.store.EnsureInitialized(ctx); err != nil {
		s.logger.Warn("ensure catalog failed", slog.String("error", err.Error()))
	}
	return s.store.Load(ctx)
}

// Save validates doc and replaces the backing file with it. Validation
// errors wrap apperr.ErrMalformed or apperr.ErrMissingFields and leave the
// file untouched.
func (s *Service) Save(ctx context.Context, doc models.AppsDocument, actor string) error {
	if err := catalog.Validate(doc); err != nil {
		return err
	}
	if err := s.store.Replace(ctx, doc); err != nil {
		return err
	}
	s.recordSave(ctx, doc, actor)
	if s.notify != nil {
		s.notify.PublishCatalogChange(SourceSave)
	}
	return nil
}

// UploadIcon stores data and returns its public path. The catalog is not
// modified; callers persist the path with a later Save.
func (s *Service) UploadIcon(ctx context.Context, appID, filename string, data []byte, actor string) (string, error) {
	p, err := s.sink.Store(ctx, data, appID, filename)
	if err != nil {
		return "", err
	}
	if s.log != nil {
		row := audit.UploadRow{
			Path:     p,
			AppID:    appID,
			Filename: filename,
			Checksum: checksum.Sum(data),
			Size:     int64(len(data)),
			Actor:    actor,
		}
		if err := s.log.RecordUpload(ctx, row); err != nil {
			s.logger.Warn("audit upload failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	if s.notify != nil {
		s.notify.PublishIconUpload(p)
	}
	return p, nil
}

// Uploads lists stored icon files.
func (s *Service) Uploads(ctx context.Context) ([]uploads.File, error) {
	return s.sink.List(ctx)
}

// History returns recent saves and all recorded uploads. Without an audit
// log both lists are empty.
func (s *Service) History(ctx context.Context, limit int) (*History, error) {
	h := &History{Saves: []audit.SaveRow{}, Uploads: []audit.UploadRow{}}
	if s.log == nil {
		return h, nil
	}
	saves, err := s.log.RecentSaves(ctx, limit)
	if err != nil {
		return nil, err
	}
	ups, err := s.log.Uploads(ctx, "")
	if err != nil {
		return nil, err
	}
	h.Saves, h.Uploads = saves, ups
	return h, nil
}

// FileChanged is called when the backing file is edited out of band.
func (s *Service) FileChanged() {
	if s.notify != nil {
		s.notify.PublishCatalogChange(SourceFile)
	}
}

// App returns the entry with the given id.
func (s *Service) App(ctx context.Context, id string) (*models.AppEntry, error) {
	doc := s.Catalog(ctx)
	i := doc.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("app %q: %w", id, apperr.ErrNotFound)
	}
	a := doc.Apps[i]
	return &a, nil
}

// UpsertApp replaces the entry with a matching id in place, or appends it.
// It reports whether the entry was newly created.
func (s *Service) UpsertApp(ctx context.Context, app models.AppEntry, actor string) (bool, error) {
	doc := s.Catalog(ctx)
	apps := append([]models.AppEntry{}, doc.Apps...)
	created := false
	if i := doc.Index(app.ID); i >= 0 {
		apps[i] = app
	} else {
		apps = append(apps, app)
		created = true
	}
	return created, s.Save(ctx, models.AppsDocument{Apps: apps}, actor)
}

// RemoveApp deletes the entry with the given id.
func (s *Service) RemoveApp(ctx context.Context, id, actor string) error {
	doc := s.Catalog(ctx)
	i := doc.Index(id)
	if i < 0 {
		return fmt.Errorf("app %q: %w", id, apperr.ErrNotFound)
	}
	apps := append(append([]models.AppEntry{}, doc.Apps[:i]...), doc.Apps[i+1:]...)
	return s.Save(ctx, models.AppsDocument{Apps: apps}, actor)
}

func (s *Service) recordSave(ctx context.Context, doc models.AppsDocument, actor string) {
	if s.log == nil {
		return
	}
	raw, _ := json.Marshal(doc)
	ids := make([]string, len(doc.Apps))
	for i, a := range doc.Apps {
		ids[i] = a.ID
	}
	row := audit.SaveRow{
		Checksum: checksum.Sum(raw),
		AppCount: len(doc.Apps),
		AppIDs:   ids,
		Actor:    actor,
	}
	if err := s.log.RecordSave(ctx, row); err != nil {
		s.logger.Warn("audit save failed", slog.String("error", err.Error()))
	}
}
