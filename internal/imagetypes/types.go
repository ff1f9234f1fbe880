package imagetypes

// SortKey specifies which entry attribute to sort by.
type SortKey string

// SortOrder specifies the direction of sorting.
type SortOrder string

const (
	// SortByName sorts entries by filename (case-insensitive).
	SortByName SortKey = "name"
	// SortByModTime sorts entries by modification time.
	SortByModTime SortKey = "modtime"
	// SortBySize sorts entries by file size in bytes.
	SortBySize SortKey = "size"

	// SortAsc sorts in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order.
	SortDesc SortOrder = "desc"
)

// ValidSortKey reports whether key names a supported sort attribute.
func ValidSortKey(key SortKey) bool {
	switch key {
	case SortByName, SortByModTime, SortBySize:
		return true
	}
	return false
}

// ValidSortOrder reports whether order names a supported sort direction.
func ValidSortOrder(order SortOrder) bool {
	return order == SortAsc || order == SortDesc
}

// DefaultImageExtensions is the stock allow-list of raster image
// extensions the gallery will pick up. Callers may pass their own table
// to the scanner; this is configuration, not policy.
var DefaultImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// MimeTypes maps image file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// CloneExtensions returns a copy of an extension allow-list so callers
// can tweak it without mutating a shared table.
func CloneExtensions(exts map[string]bool) map[string]bool {
	out := make(map[string]bool, len(exts))
	for k, v := range exts {
		out[k] = v
	}
	return out
}
