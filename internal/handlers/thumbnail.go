package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/thumbcache"
	"gallery-viewer/internal/thumbnail"
)

// GetThumbnail serves the cached thumbnail for an entry. The path is
// relative to the gallery root; only paths currently in the sequence
// are served.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	relPath := mux.Vars(r)["path"]
	if relPath == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	if !h.thumbnailsEnabled {
		writeJSONError(w, "thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	h.mu.Lock()
	root := h.index.Root()
	fullPath, ok := resolveUnderRoot(root, relPath)
	var fingerprint string
	if ok {
		if entry, present := h.index.Entry(fullPath); present {
			fingerprint = entry.Fingerprint()
		}
	}
	h.mu.Unlock()

	if !ok {
		logging.Warn("thumbnail request escapes root: %s", relPath)
		writeJSONError(w, "invalid path", http.StatusBadRequest)
		return
	}
	if fingerprint == "" {
		writeJSONError(w, "not in gallery", http.StatusNotFound)
		return
	}

	// Generation runs outside the index lock; the store handles
	// coalescing and concurrency limits.
	thumb, err := h.thumbs.GetOrCreate(r.Context(), fingerprint, fullPath)
	if err != nil {
		writeThumbnailError(w, relPath, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("thumbnail write aborted for %s: %v", relPath, err)
	}
}

// resolveUnderRoot joins a client-supplied relative path with the root
// and rejects anything that escapes it.
func resolveUnderRoot(root, relPath string) (string, bool) {
	fullPath := filepath.Join(root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(root, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return fullPath, true
}

// writeThumbnailError maps generation errors onto HTTP status codes.
func writeThumbnailError(w http.ResponseWriter, relPath string, err error) {
	switch {
	case errors.Is(err, gallery.ErrEntryNotPresent):
		writeJSONError(w, "not in gallery", http.StatusNotFound)
	case errors.Is(err, thumbnail.ErrCorrupt):
		logging.Warn("thumbnail: corrupt source %s: %v", relPath, err)
		writeJSONError(w, "image cannot be decoded", http.StatusUnprocessableEntity)
	case errors.Is(err, thumbnail.ErrTooLarge):
		writeJSONError(w, "image exceeds decode limits", http.StatusUnprocessableEntity)
	case errors.Is(err, thumbnail.ErrTimeout):
		writeJSONError(w, "thumbnail generation timed out", http.StatusGatewayTimeout)
	case errors.Is(err, thumbcache.ErrStorageFull):
		logging.Error("thumbnail: %v", err)
		writeJSONError(w, "thumbnail storage is full", http.StatusInsufficientStorage)
	default:
		logging.Error("thumbnail: generation failed for %s: %v", relPath, err)
		writeJSONError(w, "failed to generate thumbnail", http.StatusInternalServerError)
	}
}
