package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/metrics"
)

// Default timeout for catalog operations
const defaultTimeout = 5 * time.Second

// ErrNotFound reports a catalog row that does not exist.
var ErrNotFound = errors.New("catalog record not found")

// Record describes one stored thumbnail.
type Record struct {
	Fingerprint string
	Width       int
	SourcePath  string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Failure describes a cached negative generation result: a fingerprint
// whose source could not be decoded, kept so the grid does not retry
// the same broken file on every render. A re-scan that changes the
// file's fingerprint naturally sidesteps the stale row.
type Failure struct {
	Fingerprint string
	Width       int
	Reason      string
	CreatedAt   time.Time
}

// Stats summarizes catalog contents.
type Stats struct {
	Thumbnails int64 `json:"thumbnails"`
	Failures   int64 `json:"failures"`
	TotalBytes int64 `json:"totalBytes"`
}

// Catalog is the bookkeeping database for the thumbnail cache. It maps
// fingerprints to source paths so records can be evicted by path across
// sessions, and it stores negative decode results.
type Catalog struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the catalog database at dbPath. The parent
// directory must already exist.
func Open(ctx context.Context, dbPath string) (*Catalog, error) {
	logging.Debug("Catalog path: %s", dbPath)

	// WAL mode plus a busy timeout keeps concurrent readers from
	// tripping over "database is locked" errors.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	c := &Catalog{db: db, dbPath: dbPath}

	if err := c.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalog after init failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Thumbnail catalog ready at %s", dbPath)
	return c, nil
}

func (c *Catalog) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS thumbnails (
		fingerprint TEXT NOT NULL,
		width INTEGER NOT NULL,
		source_path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (fingerprint, width)
	);

	CREATE INDEX IF NOT EXISTS idx_thumbnails_source_path ON thumbnails(source_path);

	CREATE TABLE IF NOT EXISTS failures (
		fingerprint TEXT NOT NULL,
		width INTEGER NOT NULL,
		reason TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (fingerprint, width)
	);
	`

	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordThumbnail upserts the bookkeeping row for a stored thumbnail
// and clears any stale failure row for the same key.
func (c *Catalog) RecordThumbnail(ctx context.Context, rec Record) error {
	err := c.exec(ctx, "record_thumbnail", `
		INSERT INTO thumbnails (fingerprint, width, source_path, size_bytes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint, width) DO UPDATE SET
			source_path = excluded.source_path,
			size_bytes = excluded.size_bytes`,
		rec.Fingerprint, rec.Width, rec.SourcePath, rec.SizeBytes)
	if err != nil {
		return err
	}
	return c.exec(ctx, "clear_failure",
		`DELETE FROM failures WHERE fingerprint = ? AND width = ?`,
		rec.Fingerprint, rec.Width)
}

// RecordFailure upserts a negative generation result.
func (c *Catalog) RecordFailure(ctx context.Context, f Failure) error {
	return c.exec(ctx, "record_failure", `
		INSERT INTO failures (fingerprint, width, reason)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint, width) DO UPDATE SET reason = excluded.reason`,
		f.Fingerprint, f.Width, f.Reason)
}

// LookupFailure returns the cached failure for a key, or ErrNotFound.
func (c *Catalog) LookupFailure(ctx context.Context, fingerprint string, width int) (Failure, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	f := Failure{Fingerprint: fingerprint, Width: width}
	var createdAt int64
	err := c.db.QueryRowContext(opCtx,
		`SELECT reason, created_at FROM failures WHERE fingerprint = ? AND width = ?`,
		fingerprint, width).Scan(&f.Reason, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics.CatalogQueriesTotal.WithLabelValues("lookup_failure", "miss").Inc()
		return Failure{}, ErrNotFound
	case err != nil:
		metrics.CatalogQueriesTotal.WithLabelValues("lookup_failure", "error").Inc()
		return Failure{}, fmt.Errorf("lookup failure for %s: %w", fingerprint, err)
	}
	metrics.CatalogQueriesTotal.WithLabelValues("lookup_failure", "hit").Inc()
	f.CreatedAt = time.Unix(createdAt, 0)
	return f, nil
}

// DeleteByFingerprint removes all rows (thumbnails and failures, at any
// width) for a fingerprint. Missing rows are not an error; eviction is
// idempotent.
func (c *Catalog) DeleteByFingerprint(ctx context.Context, fingerprint string) error {
	if err := c.exec(ctx, "delete_thumbnails",
		`DELETE FROM thumbnails WHERE fingerprint = ?`, fingerprint); err != nil {
		return err
	}
	return c.exec(ctx, "delete_failures",
		`DELETE FROM failures WHERE fingerprint = ?`, fingerprint)
}

// FingerprintsForPath returns every fingerprint recorded for a source
// path. A file edited over time accumulates one fingerprint per
// (size, mtime) state it was thumbnailed in; path-keyed eviction needs
// them all.
func (c *Catalog) FingerprintsForPath(ctx context.Context, sourcePath string) ([]string, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(opCtx,
		`SELECT DISTINCT fingerprint FROM thumbnails WHERE source_path = ?`, sourcePath)
	if err != nil {
		metrics.CatalogQueriesTotal.WithLabelValues("fingerprints_for_path", "error").Inc()
		return nil, fmt.Errorf("fingerprints for %s: %w", sourcePath, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close catalog rows: %v", err)
		}
	}()

	var fps []string
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		fps = append(fps, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	metrics.CatalogQueriesTotal.WithLabelValues("fingerprints_for_path", "success").Inc()
	return fps, nil
}

// GetStats returns thumbnail and failure counts plus total stored bytes.
func (c *Catalog) GetStats(ctx context.Context) (Stats, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats Stats
	err := c.db.QueryRowContext(opCtx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM thumbnails`).
		Scan(&stats.Thumbnails, &stats.TotalBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	err = c.db.QueryRowContext(opCtx, `SELECT COUNT(*) FROM failures`).Scan(&stats.Failures)
	if err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return stats, nil
}

// exec runs a statement with the default timeout and records metrics.
func (c *Catalog) exec(ctx context.Context, operation, query string, args ...any) error {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := c.db.ExecContext(opCtx, query, args...)
	if err != nil {
		metrics.CatalogQueriesTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("catalog %s: %w", operation, err)
	}
	metrics.CatalogQueriesTotal.WithLabelValues(operation, "success").Inc()
	return nil
}
