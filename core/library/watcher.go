package library

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"randomradio/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the albums root and fires a debounced callback when the
// library changes on disk, so the station can rescan without a restart.
type Watcher struct {
	fsw      *fsnotify.Watcher
	done     chan struct{}
	debounce time.Duration
}

// WatchAlbums starts watching root and its immediate sub-directories.
// onChange runs on its own goroutine after the change storm settles.
func WatchAlbums(root string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	// fsnotify is not recursive; cover the album directories one level down.
	entries, err := os.ReadDir(root)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				if err := fsw.Add(filepath.Join(root, entry.Name())); err != nil {
					logger.Warn("Failed to watch album directory",
						logger.String("dir", entry.Name()),
						logger.ErrorField(err))
				}
			}
		}
	}

	w := &Watcher{
		fsw:      fsw,
		done:     make(chan struct{}),
		debounce: debounce,
	}
	go w.loop(root, onChange)
	return w, nil
}

func (w *Watcher) loop(root string, onChange func()) {
	var timer *time.Timer
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Library change detected",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()))
			// New album directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(event.Name); err != nil {
						logger.Warn("Failed to watch new album directory",
							logger.String("dir", event.Name),
							logger.ErrorField(err))
					}
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, onChange)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Library watcher error", logger.ErrorField(err))
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
