// Package testutil provides shared test helpers for catalog stores, upload
// sinks and audit databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/launchpad/internal/audit"
	"github.com/starford/launchpad/internal/catalog"
	"github.com/starford/launchpad/internal/models"
	"github.com/starford/launchpad/internal/uploads"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore creates a catalog store whose backing file lives under a
// temporary public/config directory. The file itself is not created.
func TestStore(t *testing.T) (*catalog.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "public", "config", "apps.json")
	s, err := catalog.NewStore(path, Logger())
	if err != nil {
		t.Fatal(err)
	}
	return s, path
}

// TestSink creates an upload sink in a temporary directory served under
// /uploads.
func TestSink(t *testing.T) *uploads.Sink {
	t.Helper()
	s, err := uploads.NewSink(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestDB creates a temporary audit database that is automatically cleaned up.
func TestDB(t *testing.T) *audit.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "launchpad-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := audit.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// App returns a fully populated entry for id.
func App(id string) models.AppEntry {
	return models.AppEntry{
		ID:               id,
		Title:            strings.ToUpper(id),
		ShortDescription: "short " + id,
		LongDescription:  "long " + id,
		Icon:             "/uploads/" + id + ".png",
		URL:              "https://example.com/" + id,
		IconBg:           models.IconBgPrimary,
	}
}

// Doc returns a document holding App(id) for each id, in order.
func Doc(ids ...string) models.AppsDocument {
	apps := make([]models.AppEntry, len(ids))
	for i, id := range ids {
		apps[i] = App(id)
	}
	return models.AppsDocument{Apps: apps}
}
