//go:build !cgo

package thumbnail

import (
	"fmt"
	"image"
)

// InitVips reports libvips as unavailable in builds without cgo;
// decode falls back to pure Go.
func InitVips() error {
	return fmt.Errorf("libvips support requires cgo")
}

// ShutdownVips is a no-op in builds without cgo.
func ShutdownVips() {}

// IsVipsAvailable reports whether libvips is initialized and usable.
func IsVipsAvailable() bool {
	return false
}

// loadWithVips always fails in builds without cgo.
func loadWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	return nil, fmt.Errorf("libvips not available")
}
