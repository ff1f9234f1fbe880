package thumbcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"gallery-viewer/internal/catalog"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/metrics"
	"gallery-viewer/internal/thumbnail"
)

// ErrStorageFull reports that the cache volume has no space left. The
// cache stops writing but lookups of already-stored thumbnails keep
// working.
var ErrStorageFull = errors.New("thumbnail storage is full")

// Negative-result reasons persisted in the catalog.
const (
	reasonCorrupt  = "corrupt"
	reasonTooLarge = "too_large"
	reasonTimeout  = "timeout"
)

// Generator produces encoded thumbnail bytes for a source image.
type Generator interface {
	Generate(ctx context.Context, path string) ([]byte, error)
}

// Store is the persistent thumbnail cache. Thumbnails are keyed by
// content fingerprint, stored as plain JPEG files, and published
// atomically so readers never observe partial writes. Concurrent
// requests for the same key are collapsed into a single generation.
type Store struct {
	dir     string
	width   int
	gen     Generator
	catalog *catalog.Catalog

	group singleflight.Group
	sem   *semaphore.Weighted
}

// NewStore opens (creating if needed) a thumbnail cache rooted at dir.
// At most maxConcurrent generations run at once; excess requests queue.
// cat may be nil, disabling negative-result caching.
func NewStore(dir string, width int, gen Generator, cat *catalog.Catalog, maxConcurrent int) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	logging.Debug("thumbnail store at %s (width %d, %d workers)", dir, width, maxConcurrent)
	return &Store{
		dir:     dir,
		width:   width,
		gen:     gen,
		catalog: cat,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// thumbPath returns the deterministic on-disk location for a key.
func (s *Store) thumbPath(fingerprint string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_w%d.jpg", fingerprint, s.width))
}

// GetOrCreate returns the cached thumbnail for the fingerprint,
// generating and storing it on a miss. Identical concurrent requests
// share one generation; every caller receives the same bytes or the
// same error. Generation failures for an unchanged source are cached
// and answered without re-decoding; a changed file carries a new
// fingerprint and is retried naturally.
func (s *Store) GetOrCreate(ctx context.Context, fingerprint, sourcePath string) ([]byte, error) {
	path := s.thumbPath(fingerprint)

	// Fast path, no coordination.
	if data, err := os.ReadFile(path); err == nil {
		metrics.CacheHitsTotal.Inc()
		return data, nil
	}

	if reason, ok := s.lookupFailure(ctx, fingerprint); ok {
		metrics.CacheNegativeHitsTotal.Inc()
		return nil, failureError(reason, sourcePath)
	}

	metrics.CacheMissesTotal.Inc()

	v, err, shared := s.group.Do(fingerprint, func() (any, error) {
		// Another request may have finished while we queued.
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
		return s.generate(ctx, fingerprint, sourcePath, path)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Debug("coalesced thumbnail request for %s", sourcePath)
	}
	return v.([]byte), nil
}

func (s *Store) generate(ctx context.Context, fingerprint, sourcePath, path string) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	start := time.Now()
	data, err := s.gen.Generate(ctx, sourcePath)
	metrics.CacheGenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CacheGenerationsTotal.WithLabelValues("failed").Inc()
		s.recordFailure(ctx, fingerprint, err)
		return nil, err
	}
	metrics.CacheGenerationsTotal.WithLabelValues("succeeded").Inc()

	if err := s.writeAtomic(path, data); err != nil {
		metrics.CacheWriteErrorsTotal.Inc()
		return nil, err
	}

	if s.catalog != nil {
		rec := catalog.Record{
			Fingerprint: fingerprint,
			Width:       s.width,
			SourcePath:  sourcePath,
			SizeBytes:   int64(len(data)),
		}
		if err := s.catalog.RecordThumbnail(ctx, rec); err != nil {
			// The thumbnail file is already published; the catalog row is
			// bookkeeping and can be recreated on the next generation.
			logging.Warn("failed to record thumbnail for %s: %v", sourcePath, err)
		}
	}

	return data, nil
}

// writeAtomic publishes data at path via a same-directory temp file and
// rename, so a concurrent reader sees either nothing or the complete
// thumbnail.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return classifyWriteError(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		if closeErr := tmp.Close(); closeErr != nil {
			logging.Warn("failed to close temp file %s: %v", tmpName, closeErr)
		}
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("failed to remove temp file %s: %v", tmpName, rmErr)
		}
		return classifyWriteError(err)
	}
	if err := tmp.Close(); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("failed to remove temp file %s: %v", tmpName, rmErr)
		}
		return classifyWriteError(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("failed to remove temp file %s: %v", tmpName, rmErr)
		}
		return classifyWriteError(err)
	}
	return nil
}

// Remove evicts all cache state for a fingerprint: the stored file and
// any catalog rows, including cached failures. Removing an absent key
// is a no-op; a generation already in flight for the key may republish,
// which a later eviction cleans up.
func (s *Store) Remove(fingerprint string) error {
	path := s.thumbPath(fingerprint)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to evict thumbnail %s: %w", path, err)
	}

	if s.catalog != nil {
		if err := s.catalog.DeleteByFingerprint(context.Background(), fingerprint); err != nil {
			return err
		}
	}

	metrics.CacheEvictionsTotal.Inc()
	return nil
}

// RemoveByPath evicts every fingerprint the catalog has recorded for a
// source path. A file that was edited between generations leaves
// thumbnails under its older fingerprints; this sweeps them all. Without
// a catalog there is no fingerprint history and only the caller's
// current fingerprint can be evicted.
func (s *Store) RemoveByPath(sourcePath string) error {
	if s.catalog == nil {
		return nil
	}

	fingerprints, err := s.catalog.FingerprintsForPath(context.Background(), sourcePath)
	if err != nil {
		return fmt.Errorf("failed to list fingerprints for %s: %w", sourcePath, err)
	}
	for _, fp := range fingerprints {
		if err := s.Remove(fp); err != nil {
			return err
		}
	}
	return nil
}

// lookupFailure checks the negative-result cache.
func (s *Store) lookupFailure(ctx context.Context, fingerprint string) (string, bool) {
	if s.catalog == nil {
		return "", false
	}
	f, err := s.catalog.LookupFailure(ctx, fingerprint, s.width)
	if errors.Is(err, catalog.ErrNotFound) {
		return "", false
	}
	if err != nil {
		logging.Warn("failure lookup for %s: %v", fingerprint, err)
		return "", false
	}
	return f.Reason, true
}

// recordFailure caches a terminal generation error so the same broken
// source is not re-decoded on every grid render. Cancellation is not
// terminal and is never cached.
func (s *Store) recordFailure(ctx context.Context, fingerprint string, genErr error) {
	if s.catalog == nil {
		return
	}

	var reason string
	switch {
	case errors.Is(genErr, thumbnail.ErrCorrupt):
		reason = reasonCorrupt
	case errors.Is(genErr, thumbnail.ErrTooLarge):
		reason = reasonTooLarge
	case errors.Is(genErr, thumbnail.ErrTimeout):
		reason = reasonTimeout
	default:
		return
	}

	f := catalog.Failure{Fingerprint: fingerprint, Width: s.width, Reason: reason}
	if err := s.catalog.RecordFailure(ctx, f); err != nil {
		logging.Warn("failed to record generation failure for %s: %v", fingerprint, err)
	}
}

// failureError reconstructs the generation error for a cached failure.
func failureError(reason, sourcePath string) error {
	switch reason {
	case reasonCorrupt:
		return fmt.Errorf("%w: %s (cached)", thumbnail.ErrCorrupt, sourcePath)
	case reasonTooLarge:
		return fmt.Errorf("%w: %s (cached)", thumbnail.ErrTooLarge, sourcePath)
	case reasonTimeout:
		return fmt.Errorf("%w: %s (cached)", thumbnail.ErrTimeout, sourcePath)
	default:
		return fmt.Errorf("thumbnail generation previously failed for %s (%s)", sourcePath, reason)
	}
}

// classifyWriteError maps storage errors, distinguishing a full volume.
func classifyWriteError(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %v", ErrStorageFull, err)
	}
	return fmt.Errorf("thumbnail cache write failed: %w", err)
}
