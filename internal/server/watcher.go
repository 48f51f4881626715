package server

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the config and content directories and triggers reload
// when a YAML file in them changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dirs     []string
	onReload func(filePath string) error
	done     chan bool
	logger   *zap.Logger
}

// NewWatcher creates a watcher over dirs. Directories are watched
// non-recursively; duplicates are ignored.
func NewWatcher(dirs []string, onReload func(string) error, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsWatcher,
		onReload: onReload,
		done:     make(chan bool),
		logger:   logger,
	}

	seen := make(map[string]bool)
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			abs = filepath.Clean(dir)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		if err := fsWatcher.Add(abs); err != nil {
			fsWatcher.Close()
			return nil, err
		}
		w.dirs = append(w.dirs, abs)
		logger.Debug("watching directory", zap.String("dir", abs))
	}

	return w, nil
}

// watched reports whether a change to name should trigger a reload.
func watched(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}

				// Editors often save by writing a temp file and renaming it over the original.
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
					continue
				}
				if !watched(event.Name) {
					continue
				}

				w.logger.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
				if err := w.onReload(event.Name); err != nil {
					w.logger.Warn("reload failed", zap.String("file", event.Name), zap.Error(err))
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", zap.Error(err))

			case <-w.done:
				return
			}
		}
	}()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
