package assets

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glint3d/glint/internal/core/observability/log"
)

// watchDebounce batches editor write bursts into one reload.
const watchDebounce = 100 * time.Millisecond

// Watcher feeds filesystem changes under a root directory into the manager
// so cached assets reload during development. Event paths are translated to
// root-relative sources, matching what an FSFetcher over the same root
// resolves.
type Watcher struct {
	log     *log.Logger
	manager *Manager
	root    string
	fsw     *fsnotify.Watcher

	closeOnce sync.Once
	closeCh   chan struct{}
	doneCh    chan struct{}
}

func NewWatcher(logger *log.Logger, manager *Manager, root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	w := &Watcher{
		log:     logger,
		manager: manager,
		root:    root,
		fsw:     fsw,
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	go w.run()
	logger.Info("asset watcher started", log.String("root", root))
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending[event.Name] = time.Now()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", log.Error(err))
		case <-ticker.C:
			for path, seen := range pending {
				if time.Since(seen) < watchDebounce {
					continue
				}
				delete(pending, path)
				if src, ok := w.relSource(path); ok {
					w.manager.HandleFileChange(src)
				}
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) relSource(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Close stops the watcher and waits for its goroutine to exit. Safe to call
// more than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.closeCh)
		_ = w.fsw.Close()
		<-w.doneCh
	})
}
