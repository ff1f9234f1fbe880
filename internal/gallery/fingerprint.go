package gallery

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Fingerprint derives a stable cache key from a file's path, size, and
// modification time. It is a pure function: no I/O, deterministic
// across process restarts.
//
// Two files with the same fingerprint are assumed to have identical
// pixel content. That is a metadata-based assumption, not a content
// hash: a file rewritten with identical size inside the mtime clock's
// resolution will keep its old fingerprint. The O(1) metadata read is
// the accepted trade-off against hashing whole files on every scan.
func Fingerprint(path string, size int64, modTime time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())))
	return hex.EncodeToString(sum[:])
}
