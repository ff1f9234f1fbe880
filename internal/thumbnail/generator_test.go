package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestImage encodes a solid-color image of the given size to path.
func writeTestImage(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatal(err)
	}
}

func TestGenerateSquareOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.jpg")
	writeTestImage(t, src, 120, 40, color.RGBA{R: 255, A: 255})

	g := NewGenerator(64)
	data, err := g.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %s, want jpeg", format)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 64 || h != 64 {
		t.Errorf("output = %dx%d, want 64x64 regardless of source aspect", w, h)
	}
}

func TestGenerateLetterboxIsWhite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tall.png")
	writeTestImage(t, src, 20, 80, color.Black)

	g := NewGenerator(64)
	data, err := g.Generate(context.Background(), src)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	// A tall source is pasted centered; the left and right margins are
	// canvas. JPEG is lossy, so check near-white rather than exact.
	r, gr, b, _ := img.At(1, 32).RGBA()
	if r>>8 < 240 || gr>>8 < 240 || b>>8 < 240 {
		t.Errorf("margin pixel = (%d,%d,%d), want near-white letterbox", r>>8, gr>>8, b>>8)
	}

	// The center holds the source image.
	r, gr, b, _ = img.At(32, 32).RGBA()
	if r>>8 > 40 || gr>>8 > 40 || b>>8 > 40 {
		t.Errorf("center pixel = (%d,%d,%d), want near-black source", r>>8, gr>>8, b>>8)
	}
}

func TestGenerateCorruptSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(src, []byte("this is not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := NewGenerator(64)
	_, err := g.Generate(context.Background(), src)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestGenerateMissingSource(t *testing.T) {
	g := NewGenerator(64)
	_, err := g.Generate(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestGenerateTooLarge(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "big.jpg")
	writeTestImage(t, src, 100, 50, color.White)

	tests := []struct {
		name         string
		maxDimension int
		maxPixels    int
	}{
		{"dimension ceiling", 64, 1_000_000},
		{"pixel ceiling", 4096, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(64, WithDecodeLimits(tt.maxDimension, tt.maxPixels))
			_, err := g.Generate(context.Background(), src)
			if !errors.Is(err, ErrTooLarge) {
				t.Errorf("err = %v, want ErrTooLarge", err)
			}
		})
	}
}

func TestGenerateExpiredDeadline(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeTestImage(t, src, 10, 10, color.White)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	g := NewGenerator(64)
	_, err := g.Generate(ctx, src)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

func TestGenerateCanceledContext(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeTestImage(t, src, 10, 10, color.White)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGenerator(64)
	_, err := g.Generate(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewGeneratorDefaults(t *testing.T) {
	g := NewGenerator(0)
	if g.Width() != DefaultWidth {
		t.Errorf("Width = %d, want %d", g.Width(), DefaultWidth)
	}
	if g.quality != DefaultQuality {
		t.Errorf("quality = %d, want %d", g.quality, DefaultQuality)
	}

	g = NewGenerator(128, WithQuality(0), WithQuality(101))
	if g.quality != DefaultQuality {
		t.Errorf("out-of-range quality accepted: %d", g.quality)
	}
	g = NewGenerator(128, WithQuality(70))
	if g.quality != 70 {
		t.Errorf("quality = %d, want 70", g.quality)
	}
}
