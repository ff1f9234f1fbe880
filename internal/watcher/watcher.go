package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/metrics"
)

// Watcher observes a directory tree and raises a staleness flag when
// anything inside it changes. It never triggers a re-scan itself; the
// flag tells clients the in-memory sequence may be stale, and they
// decide when to refresh.
type Watcher struct {
	fsw       *fsnotify.Watcher
	root      string
	recursive bool
	skipDirs  map[string]bool

	dirty   atomic.Bool
	onEvent func()

	done chan struct{}
	wg   sync.WaitGroup
}

// New starts watching root. When recursive is true every non-hidden
// subdirectory is watched too, and directories created later are added
// as they appear. skipDirs names directory basenames to ignore (the
// thumbnail cache dir, typically). onEvent, if non-nil, is called after
// each relevant event; it must be fast and must not block.
func New(root string, recursive bool, skipDirs []string, onEvent func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	w := &Watcher{
		fsw:       fsw,
		root:      root,
		recursive: recursive,
		skipDirs:  skip,
		onEvent:   onEvent,
		done:      make(chan struct{}),
	}

	if err := w.addTree(root); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logging.Warn("failed to close watcher: %v", closeErr)
		}
		return nil, err
	}

	w.wg.Add(1)
	go w.run()

	logging.Info("watching %s for changes (recursive: %t)", root, recursive)
	return w, nil
}

// Dirty reports whether the tree has changed since the last Reset.
func (w *Watcher) Dirty() bool {
	return w.dirty.Load()
}

// Reset clears the staleness flag. Callers invoke it after a refresh.
func (w *Watcher) Reset() {
	w.dirty.Store(false)
}

// Stop shuts the watcher down and waits for the event loop to exit.
func (w *Watcher) Stop() {
	close(w.done)
	if err := w.fsw.Close(); err != nil {
		logging.Warn("failed to close watcher: %v", err)
	}
	w.wg.Wait()
}

// addTree registers root, plus all eligible subdirectories when
// recursive. Unreadable subtrees are skipped, not fatal.
func (w *Watcher) addTree(root string) error {
	if !w.recursive {
		if err := w.fsw.Add(root); err != nil {
			return err
		}
		metrics.WatcherWatchedDirectories.Set(float64(len(w.fsw.WatchList())))
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.Debug("watcher skipping %s: %v", path, err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipName(d.Name()) {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logging.Warn("failed to watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.WatcherWatchedDirectories.Set(float64(len(w.fsw.WatchList())))
	return nil
}

func (w *Watcher) skipName(name string) bool {
	return strings.HasPrefix(name, ".") || w.skipDirs[name]
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			metrics.WatcherErrorsTotal.Inc()
			logging.Warn("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.skipName(filepath.Base(event.Name)) {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(event.Op.String()).Inc()
	logging.Debug("watcher event: %s %s", event.Op, event.Name)

	// New directories need their own watch to see events inside them.
	if w.recursive && event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logging.Warn("failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	w.dirty.Store(true)
	if w.onEvent != nil {
		w.onEvent()
	}
}
