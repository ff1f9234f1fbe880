package handlers

import (
	"net/http"
	"runtime"
	"time"

	"gallery-viewer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Root     string `json:"root"`
	Entries  int    `json:"entries"`
	Selected int    `json:"selected"`
	Stale    bool   `json:"stale"`

	ThumbnailsEnabled bool  `json:"thumbnailsEnabled"`
	CachedThumbnails  int64 `json:"cachedThumbnails,omitempty"`
	CachedFailures    int64 `json:"cachedFailures,omitempty"`
	CacheBytes        int64 `json:"cacheBytes,omitempty"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	entries := h.index.Len()
	selected := h.index.SelectionCount()
	root := h.index.Root()
	h.mu.Unlock()

	response := HealthResponse{
		Status:            statusHealthy,
		Version:           startup.Version,
		Uptime:            time.Since(h.startTime).Round(time.Second).String(),
		Root:              root,
		Entries:           entries,
		Selected:          selected,
		ThumbnailsEnabled: h.thumbnailsEnabled,
		GoVersion:         runtime.Version(),
		NumCPU:            runtime.NumCPU(),
		NumGoroutine:      runtime.NumGoroutine(),
	}
	if h.watcher != nil {
		response.Stale = h.watcher.Dirty()
	}

	if h.catalog != nil {
		if stats, err := h.catalog.GetStats(r.Context()); err == nil {
			response.CachedThumbnails = stats.Thumbnails
			response.CachedFailures = stats.Failures
			response.CacheBytes = stats.TotalBytes
		} else {
			response.Status = statusDegraded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, response)
	}
}

// LivenessCheck is a simple liveness probe.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the initial scan has populated the
// index (an empty directory still counts as scanned).
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{"status": "ready"})
}

// CacheStats reports thumbnail catalog statistics.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeJSONError(w, "catalog disabled", http.StatusServiceUnavailable)
		return
	}

	stats, err := h.catalog.GetStats(r.Context())
	if err != nil {
		writeJSONError(w, "failed to read catalog stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
