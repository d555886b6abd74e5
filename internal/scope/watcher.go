package scope

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher observes config files on disk and drives registry lifecycle
// events: a write or create becomes a reload, a remove or rename an
// unload. Configuration edits are picked up without restarting the
// server.
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   *log.Logger

	mu      sync.Mutex
	tracked map[string]struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher bound to a registry. The watcher
// installs itself as the registry's tracker so every resolved config
// file is observed.
func NewWatcher(registry *Registry, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		registry: registry,
		watcher:  fw,
		logger:   logger,
		tracked:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	registry.SetTracker(w.Track)
	return w, nil
}

// Track starts observing a config file. Watching the parent directory
// rather than the file itself survives editors that replace files on
// save.
func (w *Watcher) Track(configPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.tracked[configPath]; ok {
		return
	}
	w.tracked[configPath] = struct{}{}

	dir := filepath.Dir(configPath)
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("watch config dir", "dir", dir, "err", err)
	}
}

// Run processes file events until the context is cancelled or the
// watcher is closed. It should be called in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher", "err", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	w.mu.Lock()
	_, ok := w.tracked[event.Name]
	w.mu.Unlock()
	if !ok {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create):
		w.registry.Reload(event.Name)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.registry.Unload(event.Name)
	}
}
