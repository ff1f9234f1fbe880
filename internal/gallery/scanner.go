package gallery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gallery-viewer/internal/imagetypes"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/metrics"
)

// CacheDirName is the hidden per-root directory that holds generated
// thumbnails. The scanner always skips it.
const CacheDirName = ".thumbnails"

// ScanIssue records a path the scanner had to skip and why. Issues are
// reported, not fatal: siblings of an unreadable subtree are still
// scanned.
type ScanIssue struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Reason returns the issue's error text for reporting.
func (i ScanIssue) Reason() string {
	if i.Err == nil {
		return ""
	}
	return i.Err.Error()
}

// Scanner enumerates image files under a root directory.
type Scanner struct {
	extensions map[string]bool
}

// NewScanner creates a Scanner that accepts files whose lowercase
// extension appears in the allow-list. A nil allow-list uses the
// default image extension table.
func NewScanner(extensions map[string]bool) *Scanner {
	if extensions == nil {
		extensions = imagetypes.DefaultImageExtensions
	}
	return &Scanner{extensions: extensions}
}

// Scan enumerates matching files reachable from root (the immediate
// directory only, or the full subtree when recursive is set) and
// returns them ordered by the given sort specification.
//
// A missing root fails with ErrRootNotFound and an unreadable root with
// ErrPermissionDenied. Unreadable paths below the root are skipped and
// returned as ScanIssues. The scan reads the filesystem only; it never
// touches the thumbnail cache.
func (s *Scanner) Scan(root string, recursive bool, key imagetypes.SortKey, order imagetypes.SortOrder) ([]*Entry, []ScanIssue, error) {
	start := time.Now()
	var scanErr error
	defer func() {
		status := "success"
		if scanErr != nil {
			status = "error"
		}
		metrics.ScannerScansTotal.WithLabelValues(status).Inc()
		metrics.ScannerScanDuration.Observe(time.Since(start).Seconds())
	}()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		scanErr = fmt.Errorf("%w: %s", ErrRootNotFound, root)
		return nil, nil, scanErr
	}

	info, err := os.Stat(absRoot)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		scanErr = fmt.Errorf("%w: %s", ErrRootNotFound, absRoot)
		return nil, nil, scanErr
	case errors.Is(err, fs.ErrPermission):
		scanErr = fmt.Errorf("%w: %s", ErrPermissionDenied, absRoot)
		return nil, nil, scanErr
	case err != nil:
		scanErr = fmt.Errorf("stat %s: %w", absRoot, err)
		return nil, nil, scanErr
	case !info.IsDir():
		scanErr = fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, absRoot)
		return nil, nil, scanErr
	}

	var entries []*Entry
	var issues []ScanIssue

	if recursive {
		entries, issues = s.walkTree(absRoot)
	} else {
		entries, issues = s.readDirectory(absRoot)
	}

	SortEntries(entries, key, order)

	metrics.ScannerEntriesReturned.Observe(float64(len(entries)))
	metrics.ScannerIssuesTotal.Add(float64(len(issues)))

	logging.Debug("Scan of %s complete: %d entries, %d issues in %v",
		absRoot, len(entries), len(issues), time.Since(start))

	return entries, issues, nil
}

// readDirectory lists the immediate directory only.
func (s *Scanner) readDirectory(root string) ([]*Entry, []ScanIssue) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		// Root stat succeeded but the listing failed; report the root
		// itself as an issue rather than aborting.
		return nil, []ScanIssue{{Path: root, Err: classifyScanError(err)}}
	}

	var entries []*Entry
	var issues []ScanIssue

	for _, de := range dirEntries {
		if de.IsDir() || skipName(de.Name()) {
			continue
		}
		if !s.extensions[strings.ToLower(filepath.Ext(de.Name()))] {
			continue
		}
		info, err := de.Info()
		if err != nil {
			issues = append(issues, ScanIssue{Path: filepath.Join(root, de.Name()), Err: classifyScanError(err)})
			continue
		}
		entries = append(entries, NewEntry(filepath.Join(root, de.Name()), info))
	}

	return entries, issues
}

// walkTree lists the full subtree, skipping unreadable branches.
func (s *Scanner) walkTree(root string) ([]*Entry, []ScanIssue) {
	var entries []*Entry
	var issues []ScanIssue

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			issues = append(issues, ScanIssue{Path: path, Err: classifyScanError(err)})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && skipName(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if skipName(d.Name()) || !s.extensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			issues = append(issues, ScanIssue{Path: path, Err: classifyScanError(err)})
			return nil
		}

		entries = append(entries, NewEntry(path, info))
		return nil
	})
	if walkErr != nil {
		logging.Warn("walk of %s returned error: %v", root, walkErr)
	}

	return entries, issues
}

// Subdirectories returns the names of the immediate subdirectories of
// root, sorted, skipping hidden directories and the thumbnail cache.
func (s *Scanner) Subdirectories(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	dirEntries, err := os.ReadDir(absRoot)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, absRoot)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, absRoot)
	case err != nil:
		return nil, err
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() && !skipName(de.Name()) {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// skipName reports whether a file or directory name is excluded from
// scanning: hidden names and the thumbnail cache directory.
func skipName(name string) bool {
	return strings.HasPrefix(name, ".") || name == CacheDirName
}

// classifyScanError wraps a filesystem error with the scan taxonomy so
// callers can test with errors.Is.
func classifyScanError(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrRootNotFound, err)
	default:
		return err
	}
}

// SortEntries orders entries in place by the given key and direction.
// Name comparisons are case-insensitive; ties fall back to the path so
// the order is deterministic.
func SortEntries(entries []*Entry, key imagetypes.SortKey, order imagetypes.SortOrder) {
	less := func(a, b *Entry) bool {
		switch key {
		case imagetypes.SortByModTime:
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.Before(b.ModTime)
			}
		case imagetypes.SortBySize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		default: // SortByName
			na, nb := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if na != nb {
				return na < nb
			}
		}
		return a.Path < b.Path
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if order == imagetypes.SortDesc {
			return less(entries[j], entries[i])
		}
		return less(entries[i], entries[j])
	})
}
