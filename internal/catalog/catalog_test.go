package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return c
}

func TestRecordAndLookup(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	rec := Record{Fingerprint: "fp1", Width: 320, SourcePath: "/photos/a.jpg", SizeBytes: 4096}
	if err := c.RecordThumbnail(ctx, rec); err != nil {
		t.Fatalf("RecordThumbnail: %v", err)
	}

	fps, err := c.FingerprintsForPath(ctx, "/photos/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 1 || fps[0] != "fp1" {
		t.Errorf("FingerprintsForPath = %v, want [fp1]", fps)
	}

	stats, err := c.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Thumbnails != 1 || stats.TotalBytes != 4096 {
		t.Errorf("stats = %+v, want 1 thumbnail of 4096 bytes", stats)
	}
}

func TestRecordThumbnailUpsert(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	rec := Record{Fingerprint: "fp1", Width: 320, SourcePath: "/photos/a.jpg", SizeBytes: 100}
	if err := c.RecordThumbnail(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.SizeBytes = 200
	if err := c.RecordThumbnail(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stats, err := c.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Thumbnails != 1 {
		t.Errorf("Thumbnails = %d, want 1 after upsert", stats.Thumbnails)
	}
	if stats.TotalBytes != 200 {
		t.Errorf("TotalBytes = %d, want 200", stats.TotalBytes)
	}
}

func TestFailureRoundTrip(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	if _, err := c.LookupFailure(ctx, "fpX", 320); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := c.RecordFailure(ctx, Failure{Fingerprint: "fpX", Width: 320, Reason: "corrupt"}); err != nil {
		t.Fatal(err)
	}

	f, err := c.LookupFailure(ctx, "fpX", 320)
	if err != nil {
		t.Fatalf("LookupFailure: %v", err)
	}
	if f.Reason != "corrupt" {
		t.Errorf("Reason = %s, want corrupt", f.Reason)
	}

	// Width is part of the key.
	if _, err := c.LookupFailure(ctx, "fpX", 640); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for other width", err)
	}
}

func TestRecordThumbnailClearsFailure(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	if err := c.RecordFailure(ctx, Failure{Fingerprint: "fp1", Width: 320, Reason: "timeout"}); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordThumbnail(ctx, Record{Fingerprint: "fp1", Width: 320, SourcePath: "/a.jpg"}); err != nil {
		t.Fatal(err)
	}

	if _, err := c.LookupFailure(ctx, "fp1", 320); !errors.Is(err, ErrNotFound) {
		t.Errorf("failure row survived a successful generation: %v", err)
	}
}

func TestDeleteByFingerprint(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	if err := c.RecordThumbnail(ctx, Record{Fingerprint: "fp1", Width: 320, SourcePath: "/a.jpg"}); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordThumbnail(ctx, Record{Fingerprint: "fp1", Width: 640, SourcePath: "/a.jpg"}); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordFailure(ctx, Failure{Fingerprint: "fp1", Width: 160, Reason: "corrupt"}); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteByFingerprint(ctx, "fp1"); err != nil {
		t.Fatalf("DeleteByFingerprint: %v", err)
	}

	fps, err := c.FingerprintsForPath(ctx, "/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 0 {
		t.Errorf("rows survived deletion: %v", fps)
	}
	if _, err := c.LookupFailure(ctx, "fp1", 160); !errors.Is(err, ErrNotFound) {
		t.Errorf("failure row survived deletion")
	}

	// Deleting again is a no-op, not an error.
	if err := c.DeleteByFingerprint(ctx, "fp1"); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}

func TestMultipleFingerprintsPerPath(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	// A file edited over time accumulates fingerprints.
	for _, fp := range []string{"fpOld", "fpNew"} {
		if err := c.RecordThumbnail(ctx, Record{Fingerprint: fp, Width: 320, SourcePath: "/a.jpg"}); err != nil {
			t.Fatal(err)
		}
	}

	fps, err := c.FingerprintsForPath(ctx, "/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(fps) != 2 {
		t.Errorf("FingerprintsForPath = %v, want both fingerprints", fps)
	}
}
