package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/imagetypes"
	"gallery-viewer/internal/logging"
)

// EntryView is one gallery entry as exposed over the API.
type EntryView struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	MimeType string    `json:"mimeType"`
	Selected bool      `json:"selected"`
}

// GalleryState is the full browsing state returned by most commands, so
// a client can redraw without a follow-up request.
type GalleryState struct {
	Root        string               `json:"root"`
	Recursive   bool                 `json:"recursive"`
	SortKey     imagetypes.SortKey   `json:"sortKey"`
	SortOrder   imagetypes.SortOrder `json:"sortOrder"`
	GridColumns int                  `json:"gridColumns"`
	Entries     []EntryView          `json:"entries"`
	Cursor      int                  `json:"cursor"`
	CursorPath  string               `json:"cursorPath,omitempty"`
	Selected    int                  `json:"selectedCount"`
	Stale       bool                 `json:"stale"`
}

// state builds a GalleryState snapshot. Callers must hold the mutex.
func (h *Handlers) state() GalleryState {
	entries := h.index.Entries()
	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView{
			Path:     e.Path,
			Name:     e.Name,
			Size:     e.Size,
			ModTime:  e.ModTime,
			MimeType: e.MimeType(),
			Selected: h.index.IsSelected(e.Path),
		})
	}

	st := GalleryState{
		Root:        h.index.Root(),
		Recursive:   h.index.Recursive(),
		SortKey:     h.index.SortKey(),
		SortOrder:   h.index.SortOrder(),
		GridColumns: h.gridColumns,
		Entries:     views,
		Cursor:      h.index.Cursor(),
		Selected:    h.index.SelectionCount(),
	}
	if e, ok := h.index.CursorEntry(); ok {
		st.CursorPath = e.Path
	}
	if h.watcher != nil {
		st.Stale = h.watcher.Dirty()
	}
	return st
}

// GetGallery returns the current browsing state without touching disk.
func (h *Handlers) GetGallery(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	st := h.state()
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, st)
}

// RefreshResponse is the gallery state plus the paths the scanner had
// to skip.
type RefreshResponse struct {
	GalleryState
	Issues []ScanIssueView `json:"issues,omitempty"`
}

// ScanIssueView is one skipped path as exposed over the API.
type ScanIssueView struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Refresh re-scans the root and reconciles the sequence with the disk.
// This is the only endpoint that re-reads the directory tree.
func (h *Handlers) Refresh(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	issues, err := h.index.Refresh()
	var resp RefreshResponse
	if err == nil {
		resp.GalleryState = h.state()
	}
	h.mu.Unlock()

	if err != nil {
		writeScanError(w, err)
		return
	}

	if h.watcher != nil {
		h.watcher.Reset()
		resp.Stale = false
	}

	for _, issue := range issues {
		resp.Issues = append(resp.Issues, ScanIssueView{Path: issue.Path, Reason: issue.Reason()})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// SetSort re-orders the sequence.
func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   imagetypes.SortKey   `json:"key"`
		Order imagetypes.SortOrder `json:"order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	err := h.index.SetSort(req.Key, req.Order)
	var st GalleryState
	if err == nil {
		st = h.state()
	}
	h.mu.Unlock()

	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, st)
}

// ToggleSelect flips the selection state of one path.
func (h *Handlers) ToggleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	err := h.index.ToggleSelect(req.Path)
	selected := h.index.IsSelected(req.Path)
	count := h.index.SelectionCount()
	h.mu.Unlock()

	if err != nil {
		if errors.Is(err, gallery.ErrEntryNotPresent) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"path":          req.Path,
		"selected":      selected,
		"selectedCount": count,
	})
}

// SelectAll selects every entry currently in the sequence.
func (h *Handlers) SelectAll(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	h.index.SelectAll()
	count := h.index.SelectionCount()
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"selectedCount": count})
}

// ClearSelection empties the selection set.
func (h *Handlers) ClearSelection(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	h.index.ClearSelection()
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"selectedCount": 0})
}

// SetCursor places the preview cursor on a specific entry.
func (h *Handlers) SetCursor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	err := h.index.SetCursor(req.Path)
	cursor := h.index.Cursor()
	h.mu.Unlock()

	if err != nil {
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"cursor": cursor, "cursorPath": req.Path})
}

// MoveCursor moves the preview cursor one step. At the boundaries the
// cursor stays put; the response carries the resulting position either
// way.
func (h *Handlers) MoveCursor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction gallery.Direction `json:"direction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Direction != gallery.DirectionNext && req.Direction != gallery.DirectionPrevious {
		writeJSONError(w, fmt.Sprintf("invalid direction %q", req.Direction), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	cursor := h.index.MoveCursor(req.Direction)
	cursorPath := ""
	if e, ok := h.index.CursorEntry(); ok {
		cursorPath = e.Path
	}
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"cursor": cursor, "cursorPath": cursorPath})
}

// DeleteFiles permanently removes files from disk. With no explicit
// paths the current selection is deleted. Requests above the batch cap
// are rejected outright rather than truncated.
func (h *Handlers) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paths []string `json:"paths"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	paths := req.Paths
	if len(paths) == 0 {
		paths = h.index.Selected()
	}
	if len(paths) > maxDeleteBatch {
		h.mu.Unlock()
		writeJSONError(w,
			fmt.Sprintf("delete batch too large: %d paths (limit %d)", len(paths), maxDeleteBatch),
			http.StatusBadRequest)
		return
	}
	if len(paths) == 0 {
		h.mu.Unlock()
		writeJSONError(w, "nothing to delete", http.StatusBadRequest)
		return
	}

	logging.Info("delete request for %d paths", len(paths))
	report := h.index.DeleteMany(paths)
	st := h.state()
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"report": report,
		"state":  st,
	})
}

// ListDirs returns the names of immediate subdirectories of the root,
// for the directory picker.
func (h *Handlers) ListDirs(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	dirs, err := h.index.Scanner().Subdirectories(h.index.Root())
	h.mu.Unlock()

	if err != nil {
		writeScanError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string][]string{"dirs": dirs})
}

// writeScanError maps scan errors onto HTTP status codes.
func writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gallery.ErrRootNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, gallery.ErrPermissionDenied):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	default:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
