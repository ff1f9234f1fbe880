package gallery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gallery-viewer/internal/imagetypes"
)

// writeTestFile creates a file with the given content under dir,
// creating parent directories as needed.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func entryPaths(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func entryNames(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestScanFlat(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "b.jpg", "bb")
	writeTestFile(t, dir, "a.png", "aa")
	writeTestFile(t, dir, "notes.txt", "not an image")
	writeTestFile(t, dir, ".hidden.jpg", "hidden")
	writeTestFile(t, dir, "sub/c.jpg", "in subdir")
	writeTestFile(t, dir, CacheDirName+"/cached.jpg", "thumb")

	s := NewScanner(nil)
	entries, issues, err := s.Scan(dir, false, imagetypes.SortByName, imagetypes.SortAsc)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("unexpected issues: %v", issues)
	}

	got := entryNames(entries)
	want := []string{"a.png", "b.jpg"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "top.jpg", "x")
	writeTestFile(t, dir, "sub/nested.jpg", "y")
	writeTestFile(t, dir, "sub/deeper/deep.png", "z")
	writeTestFile(t, dir, ".hidden/secret.jpg", "h")
	writeTestFile(t, dir, CacheDirName+"/thumb.jpg", "t")

	s := NewScanner(nil)
	entries, _, err := s.Scan(dir, true, imagetypes.SortByName, imagetypes.SortAsc)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	got := entryNames(entries)
	want := []string{"deep.png", "nested.jpg", "top.jpg"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := NewScanner(nil)
	_, _, err := s.Scan(filepath.Join(t.TempDir(), "nope"), false, imagetypes.SortByName, imagetypes.SortAsc)
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("err = %v, want ErrRootNotFound", err)
	}
}

func TestScanRootIsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "file.jpg", "x")

	s := NewScanner(nil)
	_, _, err := s.Scan(path, false, imagetypes.SortByName, imagetypes.SortAsc)
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("err = %v, want ErrRootNotFound", err)
	}
}

func TestScanUnreadableSubdirectory(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping permission test when running as root")
	}

	dir := t.TempDir()
	writeTestFile(t, dir, "a.jpg", "readable")
	writeTestFile(t, dir, "sub/b.jpg", "readable too")
	locked := filepath.Join(dir, "locked")
	writeTestFile(t, dir, "locked/c.jpg", "unreachable")

	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		// Restore permissions so TempDir cleanup succeeds.
		if err := os.Chmod(locked, 0o755); err != nil {
			t.Errorf("restore permissions: %v", err)
		}
	})

	s := NewScanner(nil)
	entries, issues, err := s.Scan(dir, true, imagetypes.SortByName, imagetypes.SortAsc)
	if err != nil {
		t.Fatalf("Scan aborted on an unreadable subdirectory: %v", err)
	}

	// Siblings of the unreadable branch are still returned.
	got := entryNames(entries)
	want := []string{"a.jpg", "b.jpg"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entries[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if len(issues) != 1 {
		t.Fatalf("issues = %v, want exactly one for the locked directory", issues)
	}
	if issues[0].Path != locked {
		t.Errorf("issue path = %s, want %s", issues[0].Path, locked)
	}
	if !errors.Is(issues[0].Err, ErrPermissionDenied) {
		t.Errorf("issue err = %v, want ErrPermissionDenied", issues[0].Err)
	}
}

func TestScanCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a.jpg", "x")
	writeTestFile(t, dir, "b.heic", "y")

	s := NewScanner(map[string]bool{".heic": true})
	entries, _, err := s.Scan(dir, false, imagetypes.SortByName, imagetypes.SortAsc)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "b.heic" {
		t.Errorf("entries = %v, want only b.heic", entryNames(entries))
	}
}

func TestSortEntries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(name string, size int64, mtime time.Time) *Entry {
		return &Entry{Path: "/g/" + name, Name: name, Size: size, ModTime: mtime}
	}

	tests := []struct {
		name    string
		key     imagetypes.SortKey
		order   imagetypes.SortOrder
		entries []*Entry
		want    []string
	}{
		{
			name:  "name ascending case-insensitive",
			key:   imagetypes.SortByName,
			order: imagetypes.SortAsc,
			entries: []*Entry{
				mk("Banana.jpg", 1, base),
				mk("apple.jpg", 1, base),
				mk("Cherry.jpg", 1, base),
			},
			want: []string{"apple.jpg", "Banana.jpg", "Cherry.jpg"},
		},
		{
			name:  "name descending",
			key:   imagetypes.SortByName,
			order: imagetypes.SortDesc,
			entries: []*Entry{
				mk("a.jpg", 1, base),
				mk("c.jpg", 1, base),
				mk("b.jpg", 1, base),
			},
			want: []string{"c.jpg", "b.jpg", "a.jpg"},
		},
		{
			name:  "size ascending with path tiebreak",
			key:   imagetypes.SortBySize,
			order: imagetypes.SortAsc,
			entries: []*Entry{
				mk("big.jpg", 300, base),
				mk("small.jpg", 100, base),
				mk("also100.jpg", 100, base),
			},
			want: []string{"also100.jpg", "small.jpg", "big.jpg"},
		},
		{
			name:  "modtime descending",
			key:   imagetypes.SortByModTime,
			order: imagetypes.SortDesc,
			entries: []*Entry{
				mk("old.jpg", 1, base),
				mk("new.jpg", 1, base.Add(time.Hour)),
				mk("mid.jpg", 1, base.Add(time.Minute)),
			},
			want: []string{"new.jpg", "mid.jpg", "old.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortEntries(tt.entries, tt.key, tt.order)
			got := entryNames(tt.entries)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("position %d = %s, want %s (full order: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "beta/x.jpg", "x")
	writeTestFile(t, dir, "alpha/y.jpg", "y")
	writeTestFile(t, dir, ".hidden/z.jpg", "z")
	writeTestFile(t, dir, CacheDirName+"/t.jpg", "t")
	writeTestFile(t, dir, "loose.jpg", "l")

	s := NewScanner(nil)
	dirs, err := s.Subdirectories(dir)
	if err != nil {
		t.Fatalf("Subdirectories: %v", err)
	}

	want := []string{"alpha", "beta"}
	if len(dirs) != len(want) {
		t.Fatalf("dirs = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dirs[%d] = %s, want %s", i, dirs[i], want[i])
		}
	}
}

func TestSubdirectoriesMissingRoot(t *testing.T) {
	s := NewScanner(nil)
	_, err := s.Subdirectories(filepath.Join(t.TempDir(), "gone"))
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("err = %v, want ErrRootNotFound", err)
	}
}
