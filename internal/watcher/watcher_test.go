package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestWatcherFlagsNewFile(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, false, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if w.Dirty() {
		t.Fatal("watcher dirty before any change")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, w.Dirty, "watcher never flagged the new file")
}

func TestWatcherResetClearsFlag(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, false, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, w.Dirty, "watcher never went dirty")

	w.Reset()
	if w.Dirty() {
		t.Error("flag still set after Reset")
	}

	// Changes after the reset flag again.
	if err := os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, w.Dirty, "watcher never flagged the post-reset change")
}

func TestWatcherCallback(t *testing.T) {
	dir := t.TempDir()

	fired := make(chan struct{}, 8)
	w, err := New(dir, false, nil, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestWatcherIgnoresSkippedDirs(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, true, []string{".thumbnails"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Creating the cache dir itself must not flag staleness.
	if err := os.MkdirAll(filepath.Join(dir, ".thumbnails"), 0o755); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if w.Dirty() {
		t.Error("skipped directory flagged the watcher")
	}
}

func TestWatcherRecursivePicksUpNewSubdirs(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir, true, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// A change inside a pre-existing subdirectory is seen.
	if err := os.WriteFile(filepath.Join(dir, "sub", "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, w.Dirty, "change in subdirectory never flagged")
}

func TestWatcherMissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "gone"), true, nil, nil); err == nil {
		t.Error("New succeeded for missing root")
	}
}
