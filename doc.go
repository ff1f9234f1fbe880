// Gallery Viewer is a local image gallery engine: it scans a directory
// tree for images, maintains an ordered browsable index with selection
// and a preview cursor, serves persistently cached thumbnails, and
// executes irreversible bulk deletions with per-file failure reporting.
package main
