package audio

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/adhan/internal/prayer"
)

// CueWatcher watches the cue directories and warns when a category is
// left without cues, ahead of the next trigger that would need one.
type CueWatcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	store   *CueStore
	watcher *fsnotify.Watcher

	// Directory to category
	dirs map[string]prayer.Category

	// Last known cue count per category
	counts map[prayer.Category]int

	// OnChange is called after a category's listing changed.
	OnChange func(category prayer.Category, count int)

	done    chan struct{}
	stopped chan struct{}
	running bool
}

// NewCueWatcher creates a watcher for every category directory of store.
func NewCueWatcher(store *CueStore, logger *slog.Logger) (*CueWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create cue watcher: %w", err)
	}

	return &CueWatcher{
		logger:  logger,
		store:   store,
		watcher: watcher,
		dirs:    make(map[string]prayer.Category),
		counts:  make(map[prayer.Category]int),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Start begins watching. Missing directories are reported and skipped.
func (w *CueWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, category := range prayer.Categories() {
		dir := filepath.Clean(w.store.Dir(category))
		w.dirs[dir] = category
		w.refresh(category)

		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("cannot watch cue directory", "category", category, "dir", dir, "error", err)
		}
	}

	go w.watch()
	w.logger.Debug("cue watcher started", "root", w.store.Root())
	return nil
}

// watch is the main watch loop.
func (w *CueWatcher) watch() {
	defer close(w.stopped)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			category, ok := w.dirs[filepath.Dir(event.Name)]
			if !ok {
				continue
			}
			w.logger.Debug("cue directory changed", "category", category, "file", event.Name, "op", event.Op.String())
			w.refresh(category)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("cue watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

// refresh recounts a category and reports transitions.
func (w *CueWatcher) refresh(category prayer.Category) {
	files, err := w.store.List(category)
	count := len(files)

	w.mu.Lock()
	previous, seen := w.counts[category]
	w.counts[category] = count
	onChange := w.OnChange
	w.mu.Unlock()

	switch {
	case err != nil:
		w.logger.Warn("cue directory unavailable", "category", category, "error", err)
	case count == 0:
		w.logger.Warn("no cues left", "category", category, "dir", w.store.Dir(category))
	case seen && count != previous:
		w.logger.Info("cues changed", "category", category, "count", count)
	}

	if seen && count != previous && onChange != nil {
		onChange(category, count)
	}
}

// count returns the last known number of cues in a category.
func (w *CueWatcher) count(category prayer.Category) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts[category]
}

// Stop stops the watcher and waits for the watch loop to exit.
func (w *CueWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.done)
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.stopped
	w.logger.Debug("cue watcher stopped")
	return err
}
