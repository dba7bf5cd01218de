// internal/watch/watcher.go
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tack/internal/config"
	"tack/internal/repo"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher stages files automatically as they change in the working tree.
// Writes and creates become Stage calls, removes and renames become Unstage
// calls; the repository itself sees nothing but ordinary staging traffic.
type Watcher struct {
	repo       *repo.Repository
	watcher    *fsnotify.Watcher
	ignoreDirs map[string]bool
	mu         sync.Mutex
	logger     *zap.Logger
}

// New creates a Watcher rooted at the repository and starts its event loop.
func New(r *repo.Repository, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		repo:    r,
		watcher: fsw,
		ignoreDirs: map[string]bool{
			".git":             true,
			config.RepoDirName: true,
			"node_modules":     true,
			"vendor":           true,
			"dist":             true,
			"build":            true,
		},
		logger: logger,
	}

	go w.watchLoop()

	if err := w.addDirs(); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching repository tree: %w", err)
	}

	return w, nil
}

// addDirs registers every non-ignored directory under the root.
func (w *Watcher) addDirs() error {
	return filepath.Walk(w.repo.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("adding directory to watcher: %w", err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.shouldIgnore(event.Name) {
		return
	}

	relPath, err := filepath.Rel(w.repo.Root, event.Name)
	if err != nil {
		w.logger.Warn("Failed to compute relative path",
			zap.String("path", event.Name),
			zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory",
					zap.String("path", event.Name),
					zap.Error(err))
			}
			return
		}
		w.stage(relPath)

	case event.Op&fsnotify.Write == fsnotify.Write:
		w.stage(relPath)

	case event.Op&fsnotify.Remove == fsnotify.Remove,
		event.Op&fsnotify.Rename == fsnotify.Rename:
		if err := w.repo.Unstage([]string{relPath}); err != nil {
			w.logger.Warn("Failed to unstage removed file",
				zap.String("path", relPath),
				zap.Error(err))
			return
		}
		w.logger.Info("Unstaged removed file", zap.String("path", relPath))
	}
}

func (w *Watcher) stage(relPath string) {
	if _, err := w.repo.Stage([]string{relPath}); err != nil {
		w.logger.Warn("Failed to stage changed file",
			zap.String("path", relPath),
			zap.Error(err))
		return
	}
	w.logger.Info("Staged changed file", zap.String("path", relPath))
}

func (w *Watcher) shouldIgnore(path string) bool {
	relPath, err := filepath.Rel(w.repo.Root, path)
	if err != nil {
		return true
	}
	if relPath == "." {
		return false
	}

	for _, comp := range strings.Split(relPath, string(filepath.Separator)) {
		if w.ignoreDirs[comp] || strings.HasPrefix(comp, ".") {
			return true
		}
	}
	return false
}

// Close stops the event loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
