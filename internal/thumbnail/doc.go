// Package thumbnail renders square letterboxed JPEG thumbnails from
// source images. Decoding is bounded: a header pre-check rejects
// oversized sources before any pixel allocation, and libvips is used
// for decode-time shrinking when available, with a pure-Go fallback.
package thumbnail
