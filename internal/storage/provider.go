// Package storage defines the file-system abstraction used for the catalog
// file and uploaded icons.
package storage

import "time"

// FileInfo describes one stored file.
type FileInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for rooted file operations. All paths are
// relative to the provider root.
type Provider interface {
	// List returns every regular, non-hidden file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// Abs resolves path to an absolute location inside the root.
	Abs(path string) (string, error)
}
