package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gallery-viewer/internal/catalog"
	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/startup"
	"gallery-viewer/internal/watcher"
)

// maxDeleteBatch caps the number of paths accepted by a single delete
// request.
const maxDeleteBatch = 200

// Handlers wires the gallery index to the HTTP surface. The index is
// not safe for concurrent use, so every command acquires the mutex;
// thumbnail generation itself runs outside the lock.
type Handlers struct {
	mu      sync.Mutex
	index   *gallery.Index
	thumbs  gallery.ThumbnailProvider
	watcher *watcher.Watcher
	catalog *catalog.Catalog

	gridColumns       int
	thumbnailsEnabled bool
	startTime         time.Time
}

// New creates the handler set. watcher and cat may be nil.
func New(index *gallery.Index, thumbs gallery.ThumbnailProvider, w *watcher.Watcher, cat *catalog.Catalog, config *startup.Config) *Handlers {
	return &Handlers{
		index:             index,
		thumbs:            thumbs,
		watcher:           w,
		catalog:           cat,
		gridColumns:       config.GridColumns,
		thumbnailsEnabled: config.ThumbnailsEnabled && thumbs != nil,
		startTime:         time.Now(),
	}
}

// RegisterRoutes attaches all endpoints to the router.
func (h *Handlers) RegisterRoutes(r *mux.Router, metricsEnabled bool) {
	r.HandleFunc("/api/gallery", h.GetGallery).Methods(http.MethodGet)
	r.HandleFunc("/api/refresh", h.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/sort", h.SetSort).Methods(http.MethodPost)
	r.HandleFunc("/api/select/toggle", h.ToggleSelect).Methods(http.MethodPost)
	r.HandleFunc("/api/select/all", h.SelectAll).Methods(http.MethodPost)
	r.HandleFunc("/api/select/clear", h.ClearSelection).Methods(http.MethodPost)
	r.HandleFunc("/api/cursor", h.SetCursor).Methods(http.MethodPost)
	r.HandleFunc("/api/cursor/move", h.MoveCursor).Methods(http.MethodPost)
	r.HandleFunc("/api/delete", h.DeleteFiles).Methods(http.MethodPost)
	r.HandleFunc("/api/dirs", h.ListDirs).Methods(http.MethodGet)
	r.HandleFunc("/api/thumbnail/{path:.*}", h.GetThumbnail).Methods(http.MethodGet)
	r.HandleFunc("/api/cache/stats", h.CacheStats).Methods(http.MethodGet)
	r.HandleFunc("/api/version", h.Version).Methods(http.MethodGet)

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// Version returns build information.
func (h *Handlers) Version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, startup.GetBuildInfo())
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged; there is nothing useful to send the
// client at that point.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given
// status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// decodeJSON parses the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
