package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"whisperli/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before rescanning.
const DefaultDebounce = 300 * time.Millisecond

// Watcher rescans the catalog when files appear, disappear or are renamed
// under its directories.
type Watcher struct {
	catalog  *Catalog
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the sounds directory, each category directory and the
// user sounds directory.
func NewWatcher(c *Catalog, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{catalog: c, debounce: debounce, watcher: fw}

	w.add(c.soundsDir)
	if entries, err := os.ReadDir(c.soundsDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				w.add(filepath.Join(c.soundsDir, e.Name()))
			}
		}
	}
	if c.userDir != "" {
		w.add(c.userDir)
	}
	return w, nil
}

func (w *Watcher) add(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		logger.Warn("watcher add failed", logger.String("dir", dir), logger.ErrorField(err))
	}
}

// Run handles events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// new category directories need their own watch
			if ev.Op&fsnotify.Create != 0 && filepath.Dir(ev.Name) == filepath.Clean(w.catalog.soundsDir) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.add(ev.Name)
				}
			}
			if pending {
				timer.Stop()
			}
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", logger.ErrorField(err))
		case <-timer.C:
			pending = false
			w.catalog.Refresh()
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
