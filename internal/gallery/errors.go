package gallery

import (
	"errors"
	"io/fs"
	"syscall"
)

// Scan error kinds. Scan failures on the root are fatal; failures below
// the root are collected as ScanIssues and never abort the scan.
var (
	// ErrRootNotFound reports that the scan root does not exist or is
	// not a directory.
	ErrRootNotFound = errors.New("root directory not found")
	// ErrPermissionDenied reports an unreadable path.
	ErrPermissionDenied = errors.New("permission denied")
)

// ErrEntryNotPresent reports an operation against a path the index does
// not currently track.
var ErrEntryNotPresent = errors.New("entry not present in gallery")

// DeleteReason classifies why a single deletion failed.
type DeleteReason string

const (
	// DeleteReasonPermissionDenied means the file could not be removed
	// due to filesystem permissions.
	DeleteReasonPermissionDenied DeleteReason = "permission_denied"
	// DeleteReasonNotFound means the file had already vanished.
	DeleteReasonNotFound DeleteReason = "not_found"
	// DeleteReasonLocked means the file is held open or busy and could
	// not be removed.
	DeleteReasonLocked DeleteReason = "locked"
)

// classifyDeleteError maps an os.Remove error onto a DeleteReason.
// Anything that is neither missing nor a permission problem is treated
// as a locked file; the raw error text is preserved alongside in the
// report.
func classifyDeleteError(err error) DeleteReason {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return DeleteReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		return DeleteReasonPermissionDenied
	case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.ETXTBSY):
		return DeleteReasonLocked
	default:
		return DeleteReasonLocked
	}
}
