package gallery

import (
	"context"
	"errors"
	"fmt"

	"gallery-viewer/internal/imagetypes"
	"gallery-viewer/internal/logging"
)

// ThumbnailProvider supplies cached thumbnail bytes for entries and
// evicts records when their source files are deleted. Implemented by
// the thumbcache store.
type ThumbnailProvider interface {
	// GetOrCreate returns the thumbnail for the fingerprint, generating
	// and caching it on a miss.
	GetOrCreate(ctx context.Context, fingerprint, sourcePath string) ([]byte, error)
	// Remove evicts the record(s) for a fingerprint. Removing an absent
	// record is not an error.
	Remove(fingerprint string) error
	// RemoveByPath evicts every fingerprint ever recorded for a source
	// path. A file edited between generations accumulates records under
	// its older fingerprints; deleting the file must purge them all.
	RemoveByPath(sourcePath string) error
}

// ErrThumbnailsDisabled reports that the index has no thumbnail
// provider wired in.
var ErrThumbnailsDisabled = errors.New("thumbnails disabled")

// Config describes a browsing session over one root directory.
type Config struct {
	Root       string
	Recursive  bool
	Extensions map[string]bool
	SortKey    imagetypes.SortKey
	SortOrder  imagetypes.SortOrder
}

// Index owns the gallery's browsing state: the ordered entry sequence,
// the selection set, and the preview cursor. It is the single source of
// truth for what is currently in the gallery.
//
// The index is an explicit session object, not ambient state; create
// one per session and discard it when the session ends. It never
// re-scans on its own: callers invoke Refresh when they need the
// sequence reconciled with the disk. Callers are expected to serialize
// access; the index itself is not safe for concurrent use.
type Index struct {
	root      string
	recursive bool
	sortKey   imagetypes.SortKey
	sortOrder imagetypes.SortOrder

	scanner *Scanner
	thumbs  ThumbnailProvider

	entries  []*Entry
	byPath   map[string]*Entry
	selected map[string]struct{}
	cursor   int
}

// NewIndex creates an Index for the configured root. The sequence is
// empty until the first Refresh. The thumbnail provider may be nil, in
// which case Thumbnail returns ErrThumbnailsDisabled.
func NewIndex(cfg Config, thumbs ThumbnailProvider) (*Index, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: empty root", ErrRootNotFound)
	}

	key := cfg.SortKey
	if !imagetypes.ValidSortKey(key) {
		key = imagetypes.SortByName
	}
	order := cfg.SortOrder
	if !imagetypes.ValidSortOrder(order) {
		order = imagetypes.SortAsc
	}

	return &Index{
		root:      cfg.Root,
		recursive: cfg.Recursive,
		sortKey:   key,
		sortOrder: order,
		scanner:   NewScanner(cfg.Extensions),
		thumbs:    thumbs,
		byPath:    make(map[string]*Entry),
		selected:  make(map[string]struct{}),
		cursor:    -1,
	}, nil
}

// Refresh re-scans the root and replaces the ordered sequence,
// reconciling in-memory state with the disk: paths that vanished are
// dropped from the selection set and the cursor is re-derived. It
// returns the per-path issues the scanner skipped.
func (ix *Index) Refresh() ([]ScanIssue, error) {
	cursorPath := ix.cursorPath()

	entries, issues, err := ix.scanner.Scan(ix.root, ix.recursive, ix.sortKey, ix.sortOrder)
	if err != nil {
		return nil, err
	}

	ix.entries = entries
	ix.byPath = make(map[string]*Entry, len(entries))
	for _, e := range entries {
		ix.byPath[e.Path] = e
	}

	// Selection must stay a subset of present paths.
	for path := range ix.selected {
		if _, ok := ix.byPath[path]; !ok {
			delete(ix.selected, path)
		}
	}

	ix.rederiveCursor(cursorPath)

	logging.Debug("Refresh: %d entries, %d selected, cursor=%d", len(ix.entries), len(ix.selected), ix.cursor)
	return issues, nil
}

// SetSort re-orders the sequence in place. The cursor follows the entry
// it pointed at if that entry is still present, otherwise it clamps to
// the nearest valid position.
func (ix *Index) SetSort(key imagetypes.SortKey, order imagetypes.SortOrder) error {
	if !imagetypes.ValidSortKey(key) {
		return fmt.Errorf("invalid sort key %q", key)
	}
	if !imagetypes.ValidSortOrder(order) {
		return fmt.Errorf("invalid sort order %q", order)
	}

	cursorPath := ix.cursorPath()
	ix.sortKey = key
	ix.sortOrder = order
	SortEntries(ix.entries, key, order)
	ix.rederiveCursor(cursorPath)
	return nil
}

// ToggleSelect flips the selection state of a path. Only currently
// present paths may be selected.
func (ix *Index) ToggleSelect(path string) error {
	if _, ok := ix.byPath[path]; !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotPresent, path)
	}
	if _, ok := ix.selected[path]; ok {
		delete(ix.selected, path)
	} else {
		ix.selected[path] = struct{}{}
	}
	return nil
}

// SelectAll selects every entry currently in the sequence.
func (ix *Index) SelectAll() {
	for _, e := range ix.entries {
		ix.selected[e.Path] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (ix *Index) ClearSelection() {
	ix.selected = make(map[string]struct{})
}

// IsSelected reports whether a path is in the selection set.
func (ix *Index) IsSelected(path string) bool {
	_, ok := ix.selected[path]
	return ok
}

// Selected returns the selected paths in sequence order.
func (ix *Index) Selected() []string {
	out := make([]string, 0, len(ix.selected))
	for _, e := range ix.entries {
		if _, ok := ix.selected[e.Path]; ok {
			out = append(out, e.Path)
		}
	}
	return out
}

// SelectionCount returns the number of selected paths.
func (ix *Index) SelectionCount() int {
	return len(ix.selected)
}

// Entries returns the current ordered sequence. The returned slice is a
// copy; the entries themselves are shared and must not be mutated.
func (ix *Index) Entries() []*Entry {
	out := make([]*Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Len returns the number of entries in the sequence.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entry returns the entry for a path currently in the sequence.
func (ix *Index) Entry(path string) (*Entry, bool) {
	e, ok := ix.byPath[path]
	return e, ok
}

// Contains reports whether a path is currently in the sequence.
func (ix *Index) Contains(path string) bool {
	_, ok := ix.byPath[path]
	return ok
}

// Cursor returns the current cursor position, or -1 when the sequence
// is empty.
func (ix *Index) Cursor() int {
	return ix.cursor
}

// CursorEntry returns the entry under the cursor, if any.
func (ix *Index) CursorEntry() (*Entry, bool) {
	if ix.cursor < 0 || ix.cursor >= len(ix.entries) {
		return nil, false
	}
	return ix.entries[ix.cursor], true
}

// SetCursor places the cursor on the entry with the given path.
func (ix *Index) SetCursor(path string) error {
	for i, e := range ix.entries {
		if e.Path == path {
			ix.cursor = i
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEntryNotPresent, path)
}

// Thumbnail returns the cached or freshly generated thumbnail for a
// path currently in the sequence.
func (ix *Index) Thumbnail(ctx context.Context, path string) ([]byte, error) {
	if ix.thumbs == nil {
		return nil, ErrThumbnailsDisabled
	}
	entry, ok := ix.byPath[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotPresent, path)
	}
	return ix.thumbs.GetOrCreate(ctx, entry.Fingerprint(), entry.Path)
}

// Root returns the session's root directory.
func (ix *Index) Root() string { return ix.root }

// Recursive reports whether subdirectories are included.
func (ix *Index) Recursive() bool { return ix.recursive }

// SortKey returns the active sort key.
func (ix *Index) SortKey() imagetypes.SortKey { return ix.sortKey }

// SortOrder returns the active sort direction.
func (ix *Index) SortOrder() imagetypes.SortOrder { return ix.sortOrder }

// Scanner exposes the index's scanner for auxiliary listings such as
// the subdirectory picker.
func (ix *Index) Scanner() *Scanner { return ix.scanner }

// cursorPath returns the path under the cursor, or "" if none.
func (ix *Index) cursorPath() string {
	if e, ok := ix.CursorEntry(); ok {
		return e.Path
	}
	return ""
}

// rederiveCursor re-points the cursor after the sequence changed. If
// the previously focused path is still present the cursor follows it;
// otherwise the old numeric position is clamped into the new bounds.
func (ix *Index) rederiveCursor(prevPath string) {
	if len(ix.entries) == 0 {
		ix.cursor = -1
		return
	}

	if prevPath != "" {
		for i, e := range ix.entries {
			if e.Path == prevPath {
				ix.cursor = i
				return
			}
		}
	}

	ix.cursor = clamp(ix.cursor, 0, len(ix.entries)-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
