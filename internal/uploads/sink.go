// Package uploads stores icon files under the public uploads directory.
package uploads

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/launchpad/internal/checksum"
	"github.com/starford/launchpad/internal/storage"
)

// hashLen is the number of checksum hex characters kept in stored names.
const hashLen = 12

var unsafeRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// File is one stored upload.
type File struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Sink writes uploaded bytes into a directory served under a public prefix.
//
// Stored names are "<namespace>-<sha256 prefix><ext>", where namespace is the
// sanitized app id (or the hint's stem when no id is given). The same bytes
// for the same app always resolve to the same name, and different bytes
// never overwrite an existing file.
type Sink struct {
	fs     *storage.FS
	prefix string
}

// NewSink creates a sink rooted at dir. publicPrefix is the URL path the
// directory is served under, e.g. "/uploads".
func NewSink(dir, publicPrefix string) (*Sink, error) {
	fs, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads: %w", err)
	}
	return &Sink{fs: fs, prefix: "/" + strings.Trim(publicPrefix, "/")}, nil
}

// Dir returns the absolute uploads directory.
func (s *Sink) Dir() string { return s.fs.Root() }

// Prefix returns the public URL prefix.
func (s *Sink) Prefix() string { return s.prefix }

// Name returns the stored file name for data uploaded for appID under
// filenameHint. No content-type checks are made.
func Name(data []byte, appID, filenameHint string) string {
	base := filepath.Base(filepath.ToSlash(filenameHint))
	ext := strings.ToLower(filepath.Ext(base))
	if ext != "" && unsafeRe.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}

	ns := sanitize(appID)
	if ns == "" {
		ns = sanitize(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if ns == "" {
		ns = "icon"
	}
	return ns + "-" + checksum.Short(data, hashLen) + ext
}

// Store writes data and returns its public path. An identical file already
// on disk is reused without rewriting it.
func (s *Sink) Store(_ context.Context, data []byte, appID, filenameHint string) (string, error) {
	name := Name(data, appID, filenameHint)

	ok, err := s.fs.Exists(name)
	if err != nil {
		return "", fmt.Errorf("uploads: %w", err)
	}
	if !ok {
		if err := s.fs.Write(name, data); err != nil {
			return "", fmt.Errorf("uploads: store %s: %w", name, err)
		}
	}
	return s.PublicPath(name), nil
}

// PublicPath returns the URL path for a stored name.
func (s *Sink) PublicPath(name string) string {
	return path.Join(s.prefix, name)
}

// Open resolves a stored name to its absolute path, rejecting names with
// path separators or traversal.
func (s *Sink) Open(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if name == "" || cleaned != filepath.Base(cleaned) || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("uploads: invalid filename: %q", name)
	}
	return s.fs.Abs(cleaned)
}

// List returns stored uploads sorted by name.
func (s *Sink) List(_ context.Context) ([]File, error) {
	infos, err := s.fs.List("")
	if err != nil {
		return nil, fmt.Errorf("uploads: %w", err)
	}
	out := make([]File, 0, len(infos))
	for _, fi := range infos {
		if strings.Contains(fi.Path, "/") {
			continue
		}
		out = append(out, File{Name: fi.Path, Path: s.PublicPath(fi.Path), Size: fi.Size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func sanitize(s string) string {
	s = unsafeRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_-")
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
