package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"gallery-viewer/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// DefaultWidth is the square edge length of generated thumbnails.
	DefaultWidth = 320

	// DefaultQuality is the JPEG quality for encoded thumbnails.
	DefaultQuality = 85

	// MaxImageDimension is the maximum source width or height we'll
	// decode. Anything larger is rejected before allocation.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total source pixels (width * height)
	// we'll decode. A 20MP image uses ~80MB in RGBA.
	MaxImagePixels = 20_000_000
)

var (
	// ErrCorrupt reports a source file that could not be decoded.
	ErrCorrupt = errors.New("image cannot be decoded")

	// ErrTooLarge reports a source image whose dimensions exceed the
	// decode ceiling.
	ErrTooLarge = errors.New("image exceeds decode limits")

	// ErrTimeout reports a generation that ran past its deadline.
	ErrTimeout = errors.New("thumbnail generation timed out")
)

// Generator renders square letterboxed JPEG thumbnails. The source is
// scaled to fit within a width x width box and pasted centered onto a
// white canvas, so every thumbnail in a grid has identical dimensions
// regardless of the source's aspect ratio.
type Generator struct {
	width        int
	quality      int
	maxDimension int
	maxPixels    int
}

// Option configures a Generator.
type Option func(*Generator)

// WithQuality overrides the JPEG encode quality.
func WithQuality(q int) Option {
	return func(g *Generator) {
		if q > 0 && q <= 100 {
			g.quality = q
		}
	}
}

// WithDecodeLimits overrides the source-size ceiling.
func WithDecodeLimits(maxDimension, maxPixels int) Option {
	return func(g *Generator) {
		if maxDimension > 0 {
			g.maxDimension = maxDimension
		}
		if maxPixels > 0 {
			g.maxPixels = maxPixels
		}
	}
}

// NewGenerator returns a Generator producing width x width thumbnails.
// A non-positive width falls back to DefaultWidth.
func NewGenerator(width int, opts ...Option) *Generator {
	if width <= 0 {
		width = DefaultWidth
	}
	g := &Generator{
		width:        width,
		quality:      DefaultQuality,
		maxDimension: MaxImageDimension,
		maxPixels:    MaxImagePixels,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Width returns the configured thumbnail edge length.
func (g *Generator) Width() int {
	return g.width
}

// Generate decodes the source image at path and returns the encoded
// JPEG thumbnail bytes. Undecodable sources return ErrCorrupt,
// oversized sources return ErrTooLarge, and an expired context returns
// ErrTimeout. All three are terminal for this source state; the caller
// may cache the failure until the file changes.
func (g *Generator) Generate(ctx context.Context, path string) ([]byte, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	// Size pre-check from the header alone, before any pixel allocation.
	if dims, err := probeDimensions(path); err == nil {
		if dims.Width > g.maxDimension || dims.Height > g.maxDimension ||
			dims.Width*dims.Height > g.maxPixels {
			return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, dims.Width, dims.Height)
		}
	} else {
		// Header parsing failed; the full decode below gives the final
		// verdict on whether the file is readable at all.
		logging.Debug("could not probe dimensions for %s: %v", path, err)
	}

	img, err := g.decode(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	thumb := g.letterbox(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: g.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	logging.Debug("generated %dx%d thumbnail for %s (%d bytes)",
		g.width, g.width, path, buf.Len())
	return buf.Bytes(), nil
}

// decode loads the source image, preferring libvips when available for
// its decode-time shrinking, falling back to pure-Go decoding.
func (g *Generator) decode(path string) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := loadWithVips(path, g.width, g.width)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, falling back", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying plain decode", path, err)

	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, _, err = image.Decode(file)
	return img, err
}

// letterbox scales the image to fit the square and centers it on a
// white canvas.
func (g *Generator) letterbox(img image.Image) image.Image {
	fitted := imaging.Fit(img, g.width, g.width, imaging.Lanczos)
	canvas := imaging.New(g.width, g.width, color.White)
	return imaging.PasteCenter(canvas, fitted)
}

// dimensions holds image width and height.
type dimensions struct {
	Width  int
	Height int
}

// probeDimensions reads image dimensions from the header without
// decoding pixels.
func probeDimensions(path string) (dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return dimensions{}, err
	}
	return dimensions{Width: config.Width, Height: config.Height}, nil
}

func ctxErr(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return err
	}
}
