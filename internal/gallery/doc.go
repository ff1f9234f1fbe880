// Package gallery implements the gallery index: an ordered, selectable
// view over the image files of a directory tree, with a preview cursor
// and irreversible bulk deletion.
//
// The Index owns all browsing state for one session. Scanning is
// explicit: the caller invokes Refresh to reconcile the in-memory
// sequence with the disk, and the index never re-scans behind the
// caller's back. Thumbnails are delegated to a ThumbnailProvider so the
// core carries no imaging dependencies.
package gallery
