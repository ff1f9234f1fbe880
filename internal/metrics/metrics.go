package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Scanner metrics
var (
	ScannerScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_scanner_scans_total",
			Help: "Total number of directory scans",
		},
		[]string{"status"},
	)

	ScannerScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_scanner_scan_duration_seconds",
			Help:    "Directory scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScannerEntriesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_scanner_entries_returned",
			Help:    "Number of image entries returned per scan",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	ScannerIssuesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_scanner_issues_total",
			Help: "Total number of per-path scan failures (skipped, not fatal)",
		},
	)
)

// Thumbnail cache metrics
var (
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	CacheNegativeHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_cache_negative_hits_total",
			Help: "Total number of requests answered from the cached-failure table",
		},
	)

	CacheGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_cache_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"},
	)

	CacheGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_cache_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheEvictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_cache_evictions_total",
			Help: "Total number of thumbnail records evicted",
		},
	)

	CacheWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_cache_write_errors_total",
			Help: "Total number of failed thumbnail cache writes",
		},
	)
)

// Deletion metrics
var (
	DeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_deletions_total",
			Help: "Total number of file deletions",
		},
		[]string{"status"},
	)

	DeletionBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gallery_viewer_deletion_batch_size",
			Help:    "Number of paths per bulk delete request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 200},
		},
	)
)

// Catalog metrics
var (
	CatalogQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_catalog_queries_total",
			Help: "Total number of thumbnail catalog queries",
		},
		[]string{"operation", "status"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_viewer_watcher_events_total",
			Help: "Total number of filesystem watcher events",
		},
		[]string{"type"},
	)

	WatcherErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gallery_viewer_watcher_errors_total",
			Help: "Total number of filesystem watcher errors",
		},
	)

	WatcherWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_viewer_watcher_watched_directories",
			Help: "Number of directories currently being watched",
		},
	)
)
