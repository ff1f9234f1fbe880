package gallery

import (
	"os"

	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/metrics"
)

// DeletionFailure records one file that could not be removed.
type DeletionFailure struct {
	Path   string       `json:"path"`
	Reason DeleteReason `json:"reason"`
	Err    string       `json:"error"`
}

// DeletionReport summarizes a bulk delete: how many targets succeeded,
// how many failed, and why each failure happened. Every requested path
// is accounted for in either Deleted or Failures.
type DeletionReport struct {
	Requested int               `json:"requested"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Deleted   []string          `json:"deleted,omitempty"`
	Failures  []DeletionFailure `json:"failures,omitempty"`
}

// DeleteMany removes the given files from disk. Deletion is permanent
// and irreversible: there is no recycle bin, soft delete, or undo.
//
// Each target is attempted independently; one failure never blocks the
// others. For every successful removal the entry leaves the ordered
// sequence and the selection set, and its thumbnail record is evicted
// from the cache. Failed targets are left untouched, in both the index
// and the cache, and reported with a reason.
//
// After deletion the cursor is repaired: if its entry was deleted it
// advances to the next remaining entry, or to the new last entry when
// none follows.
func (ix *Index) DeleteMany(paths []string) DeletionReport {
	report := DeletionReport{Requested: len(paths)}
	if len(paths) == 0 {
		return report
	}

	metrics.DeletionBatchSize.Observe(float64(len(paths)))

	cursorPath := ix.cursorPath()
	cursorPos := ix.cursor
	removed := make(map[string]bool, len(paths))

	for _, path := range paths {
		entry := ix.byPath[path]

		if err := os.Remove(path); err != nil {
			reason := classifyDeleteError(err)
			report.Failed++
			report.Failures = append(report.Failures, DeletionFailure{
				Path:   path,
				Reason: reason,
				Err:    err.Error(),
			})
			metrics.DeletionsTotal.WithLabelValues("failed").Inc()
			logging.Warn("delete failed for %s: %v", path, err)
			continue
		}

		report.Succeeded++
		report.Deleted = append(report.Deleted, path)
		metrics.DeletionsTotal.WithLabelValues("succeeded").Inc()

		if entry == nil {
			// File existed on disk but was not in the current sequence;
			// nothing to reconcile.
			continue
		}

		removed[path] = true
		delete(ix.byPath, path)
		delete(ix.selected, path)

		// Evict cache records regardless of any generation still in
		// flight; eviction is idempotent. The current fingerprint covers
		// the live thumbnail; the path sweep covers records left behind
		// by earlier versions of the file.
		if ix.thumbs != nil {
			if err := ix.thumbs.Remove(entry.Fingerprint()); err != nil {
				logging.Warn("cache eviction failed for %s: %v", path, err)
			}
			if err := ix.thumbs.RemoveByPath(path); err != nil {
				logging.Warn("stale cache eviction failed for %s: %v", path, err)
			}
		}
	}

	if len(removed) > 0 {
		kept := ix.entries[:0]
		survivingBefore := 0
		for i, e := range ix.entries {
			if removed[e.Path] {
				continue
			}
			if i < cursorPos {
				survivingBefore++
			}
			kept = append(kept, e)
		}
		ix.entries = kept

		if cursorPath != "" && !removed[cursorPath] {
			ix.rederiveCursor(cursorPath)
		} else {
			// The cursor's entry was deleted: land on the entry that now
			// occupies its position, i.e. the next remaining one, or the
			// new last entry when nothing follows.
			if len(ix.entries) == 0 {
				ix.cursor = -1
			} else {
				ix.cursor = clamp(survivingBefore, 0, len(ix.entries)-1)
			}
		}
	}

	logging.Info("DeleteMany: %d requested, %d succeeded, %d failed",
		report.Requested, report.Succeeded, report.Failed)

	return report
}
