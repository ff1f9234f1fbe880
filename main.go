package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery-viewer/internal/catalog"
	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/handlers"
	"gallery-viewer/internal/imagetypes"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/middleware"
	"gallery-viewer/internal/startup"
	"gallery-viewer/internal/thumbcache"
	"gallery-viewer/internal/thumbnail"
	"gallery-viewer/internal/watcher"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize thumbnail pipeline
	var store *thumbcache.Store
	var cat *catalog.Catalog
	if config.ThumbnailsEnabled {
		catStart := time.Now()
		cat, err = catalog.Open(context.Background(), config.CatalogPath)
		if err != nil {
			logging.Fatal("Failed to open thumbnail catalog: %v", err)
		}
		startup.LogCatalogInit(time.Since(catStart))

		if err := thumbnail.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure-Go decoding: %v", err)
		}
		defer thumbnail.ShutdownVips()

		gen := thumbnail.NewGenerator(config.ThumbnailWidth,
			thumbnail.WithQuality(config.ThumbnailQuality),
			thumbnail.WithDecodeLimits(config.MaxImageDimension, config.MaxImagePixels))
		store, err = thumbcache.NewStore(config.CacheDir, config.ThumbnailWidth,
			gen, cat, config.ThumbnailWorkers)
		if err != nil {
			logging.Fatal("Failed to initialize thumbnail store: %v", err)
		}
	} else {
		logging.Warn("Thumbnails disabled (cache directory not writable)")
	}

	// Build the gallery index. A nil interface must stay nil, so only
	// wrap the store when it exists.
	var provider gallery.ThumbnailProvider
	if store != nil {
		provider = store
	}
	index, err := gallery.NewIndex(gallery.Config{
		Root:       config.GalleryDir,
		Recursive:  config.Recursive,
		Extensions: imagetypes.DefaultImageExtensions,
		SortKey:    config.SortKey,
		SortOrder:  config.SortOrder,
	}, provider)
	if err != nil {
		logging.Fatal("Failed to create gallery index: %v", err)
	}

	// Initial scan
	scanStart := time.Now()
	issues, err := index.Refresh()
	if err != nil {
		logging.Fatal("Initial scan failed: %v", err)
	}
	startup.LogInitialScan(index.Len(), len(issues), time.Since(scanStart))

	// Filesystem watcher (staleness flag only; refresh stays explicit)
	var watch *watcher.Watcher
	if config.WatchEnabled {
		watch, err = watcher.New(config.GalleryDir, config.Recursive,
			[]string{gallery.CacheDirName}, nil)
		if err != nil {
			logging.Warn("Failed to start filesystem watcher: %v", err)
			watch = nil
		}
	}

	// Initialize handlers and routes
	h := handlers.New(index, provider, watch, cat, config)
	router := mux.NewRouter()
	h.RegisterRoutes(router, config.MetricsEnabled)
	startup.LogHTTPRoutes(router)

	// Middleware chain
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.LogThumbnails = config.LogThumbnails
	handler := middleware.Logger(loggingConfig)(router)
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, watch, cat)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, watch *watcher.Watcher, cat *catalog.Catalog) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if watch != nil {
		startup.LogShutdownStep("Stopping filesystem watcher")
		watch.Stop()
		startup.LogShutdownStepComplete("Filesystem watcher stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if cat != nil {
		startup.LogShutdownStep("Closing thumbnail catalog")
		if err := cat.Close(); err != nil {
			logging.Warn("Catalog close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Thumbnail catalog closed")
		}
	}

	startup.LogShutdownComplete()
}
