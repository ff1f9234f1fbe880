package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/imagetypes"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/thumbnail"
	"gallery-viewer/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	GalleryDir        string
	CacheDir          string
	Port              string
	ThumbnailWidth    int
	ThumbnailQuality  int
	ThumbnailWorkers  int
	MaxImageDimension int
	MaxImagePixels    int
	GridColumns       int
	Recursive         bool
	SortKey           imagetypes.SortKey
	SortOrder         imagetypes.SortOrder
	WatchEnabled      bool
	MetricsEnabled    bool
	LogHealthChecks   bool
	LogThumbnails     bool

	// Derived paths
	CatalogPath string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	galleryDir := getEnv("GALLERY_DIR", ".")
	cacheDir := getEnv("CACHE_DIR", "")
	port := getEnv("PORT", "8080")
	thumbnailWidth := getEnvInt("THUMBNAIL_WIDTH", thumbnail.DefaultWidth)
	thumbnailQuality := getEnvInt("THUMBNAIL_QUALITY", thumbnail.DefaultQuality)
	thumbnailWorkers := workers.ForMixed(16)
	maxImageDimension := getEnvInt("MAX_IMAGE_DIMENSION", thumbnail.MaxImageDimension)
	maxImagePixels := getEnvInt("MAX_IMAGE_PIXELS", thumbnail.MaxImagePixels)
	gridColumns := getEnvInt("GRID_COLUMNS", 8)
	recursive := getEnvBool("RECURSIVE", false)
	sortKey := getEnv("SORT_KEY", string(imagetypes.SortByName))
	sortOrder := getEnv("SORT_ORDER", string(imagetypes.SortAsc))
	watchEnabled := getEnvBool("WATCH_ENABLED", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	logThumbnails := getEnvBool("LOG_THUMBNAILS", false)

	logging.Info("  GALLERY_DIR:        %s", galleryDir)
	logging.Info("  CACHE_DIR:          %s", displayDefault(cacheDir, "<GALLERY_DIR>/"+gallery.CacheDirName))
	logging.Info("  PORT:               %s", port)
	logging.Info("  THUMBNAIL_WIDTH:    %d", thumbnailWidth)
	logging.Info("  THUMBNAIL_QUALITY:  %d", thumbnailQuality)
	logging.Info("  THUMBNAIL_WORKERS:  %d", thumbnailWorkers)
	logging.Info("  MAX_IMAGE_DIMENSION: %d", maxImageDimension)
	logging.Info("  MAX_IMAGE_PIXELS:   %d", maxImagePixels)
	logging.Info("  GRID_COLUMNS:       %d", gridColumns)
	logging.Info("  RECURSIVE:          %v", recursive)
	logging.Info("  SORT_KEY:           %s", sortKey)
	logging.Info("  SORT_ORDER:         %s", sortOrder)
	logging.Info("  WATCH_ENABLED:      %v", watchEnabled)
	logging.Info("  METRICS_ENABLED:    %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	if !imagetypes.ValidSortKey(imagetypes.SortKey(sortKey)) {
		logging.Warn("  Invalid SORT_KEY %q, using default: %s", sortKey, imagetypes.SortByName)
		sortKey = string(imagetypes.SortByName)
	}
	if !imagetypes.ValidSortOrder(imagetypes.SortOrder(sortOrder)) {
		logging.Warn("  Invalid SORT_ORDER %q, using default: %s", sortOrder, imagetypes.SortAsc)
		sortOrder = string(imagetypes.SortAsc)
	}
	if thumbnailWidth <= 0 {
		logging.Warn("  Invalid THUMBNAIL_WIDTH, using default: %d", thumbnail.DefaultWidth)
		thumbnailWidth = thumbnail.DefaultWidth
	}
	if maxImageDimension <= 0 {
		logging.Warn("  Invalid MAX_IMAGE_DIMENSION, using default: %d", thumbnail.MaxImageDimension)
		maxImageDimension = thumbnail.MaxImageDimension
	}
	if maxImagePixels <= 0 {
		logging.Warn("  Invalid MAX_IMAGE_PIXELS, using default: %d", thumbnail.MaxImagePixels)
		maxImagePixels = thumbnail.MaxImagePixels
	}
	if gridColumns <= 0 {
		gridColumns = 8
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	galleryDir, err := filepath.Abs(galleryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve gallery directory path: %w", err)
	}
	logging.Info("  Gallery directory (absolute): %s", galleryDir)

	if cacheDir == "" {
		cacheDir = filepath.Join(galleryDir, gallery.CacheDirName)
	}
	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute):   %s", cacheDir)

	if err := ensureDirectory(galleryDir, "gallery"); err != nil {
		return nil, fmt.Errorf("gallery directory error: %w", err)
	}

	config := &Config{
		GalleryDir:        galleryDir,
		CacheDir:          cacheDir,
		Port:              port,
		ThumbnailWidth:    thumbnailWidth,
		ThumbnailQuality:  thumbnailQuality,
		ThumbnailWorkers:  thumbnailWorkers,
		MaxImageDimension: maxImageDimension,
		MaxImagePixels:    maxImagePixels,
		GridColumns:       gridColumns,
		Recursive:         recursive,
		SortKey:           imagetypes.SortKey(sortKey),
		SortOrder:         imagetypes.SortOrder(sortOrder),
		WatchEnabled:      watchEnabled,
		MetricsEnabled:    metricsEnabled,
		LogHealthChecks:   logHealthChecks,
		LogThumbnails:     logThumbnails,
		CatalogPath:       filepath.Join(cacheDir, "catalog.db"),
	}

	config.ThumbnailsEnabled = setupOptionalDir(cacheDir, "thumbnail cache")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Thumbnails: %s", enabledString(config.ThumbnailsEnabled))
	logging.Info("    Watcher:    %s", enabledString(config.WatchEnabled))
	logging.Info("    Metrics:    %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func displayDefault(value, fallback string) string {
	if value == "" {
		return fallback + " (default)"
	}
	return value
}

// LogCatalogInit logs catalog initialization
func LogCatalogInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Thumbnail catalog initialized in %v", duration)
}

// LogInitialScan logs the result of the startup gallery scan
func LogInitialScan(entries, issues int, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INITIAL SCAN")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] %d images indexed in %v (%d paths skipped)", entries, duration, issues)
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path != routes[j].Path {
				return routes[i].Path < routes[j].Path
			}
			return routes[i].Method < routes[j].Method
		})

		for _, route := range routes {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}

	logging.Info("  HTTP logging enabled")
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application: http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:     http://localhost:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:     DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   ______       ____                _    ___
  / ____/___ _ / / /__  _______  __| |  / (_)__ _      _____  _____
 / / __/ __ '// / / _ \/ ___/ / / /| | / / / _ \ | /| / / _ \/ ___/
/ /_/ / /_/ // / /  __/ /  / /_/ / | |/ / /  __/ |/ |/ /  __/ /
\____/\__,_//_/_/\___/_/   \__, /  |___/_/\___/|__/|__/\___/_/
                          /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed regardless
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
		logging.Warn("  Invalid %s value %q, using default: %d", key, value, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
		logging.Warn("  Invalid %s value %q, using default: %v", key, value, fallback)
	}
	return fallback
}
