package gallery

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"gallery-viewer/internal/imagetypes"
)

// Entry represents one image file tracked by the gallery.
//
// The path uniquely identifies an entry within one index snapshot.
// Entries are created by the scanner and never mutated in place; a
// refresh produces fresh entries with current metadata.
type Entry struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
	Ext     string    `json:"ext"`

	// fingerprint is computed lazily from (path, size, modTime) and
	// memoized; see Fingerprint.
	fingerprint string
}

// NewEntry builds an Entry for an absolute path from its file info.
func NewEntry(path string, info fs.FileInfo) *Entry {
	return &Entry{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Ext:     strings.ToLower(filepath.Ext(info.Name())),
	}
}

// Fingerprint returns the entry's cache key, derived from its path,
// size, and modification time. The value is memoized after the first
// call.
func (e *Entry) Fingerprint() string {
	if e.fingerprint == "" {
		e.fingerprint = Fingerprint(e.Path, e.Size, e.ModTime)
	}
	return e.fingerprint
}

// MimeType returns the MIME type for the entry's extension.
func (e *Entry) MimeType() string {
	return imagetypes.GetMimeType(e.Ext)
}
