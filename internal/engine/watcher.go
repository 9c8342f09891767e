package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is how long the watcher waits after the last filesystem
// event before firing its trigger. Editors save in bursts; one trigger
// per burst is enough.
const debounceDelay = 2 * time.Second

// Watcher observes the sync directory and fires a trigger when local
// edits settle. The daemon uses the trigger to schedule a run ahead of
// the next interval tick.
type Watcher struct {
	root    string
	logger  *slog.Logger
	trigger func()
}

// NewWatcher creates a watcher over root. trigger is called from the
// watch goroutine after each debounced burst of events.
func NewWatcher(root string, logger *slog.Logger, trigger func()) *Watcher {
	return &Watcher{
		root:    root,
		logger:  logger,
		trigger: trigger,
	}
}

// Watch blocks until the context is cancelled, firing the trigger after
// bursts of relevant filesystem activity.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher); err != nil {
		return fmt.Errorf("watching sync directory: %w", err)
	}

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-debounce.C:
			w.trigger()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}

			if w.shouldIgnore(event.Name) {
				continue
			}

			// New directory: watch it so files created inside are seen.
			// Lstat avoids following symlinks out of the sync root.
			if event.Has(fsnotify.Create) {
				if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				_ = watcher.Remove(event.Name)
			}

			debounce.Reset(debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}

			// Non-fatal (e.g. too many watches); the interval timer
			// still covers missed events.
			w.logger.Warn("filesystem watch error", slog.String("error", err.Error()))
		}
	}
}

// addRecursive adds the root and all non-hidden directories under it.
func (w *Watcher) addRecursive(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

// shouldIgnore filters out hidden files and editor temp files, which
// would otherwise keep resetting the debounce timer during editing.
func (w *Watcher) shouldIgnore(absPath string) bool {
	name := filepath.Base(absPath)

	if strings.HasPrefix(name, ".") {
		return true
	}

	if strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".tmp") {
		return true
	}

	return false
}
