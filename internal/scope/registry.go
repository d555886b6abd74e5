package scope

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// ConfigFileName is the configuration file the resolver searches for.
const ConfigFileName = "classlens.config.json"

// Registry resolves configuration scopes for documents and keeps their
// identities stable across requests. One Scope object is live per
// config file; Reload and Unload retire it and notify subscribers.
type Registry struct {
	mu       sync.RWMutex
	root     string
	scopes   map[string]*Scope // config path -> live scope
	fallback *Scope

	notifier *Notifier
	logger   *log.Logger

	// track is called with newly discovered config paths so a watcher
	// can start observing them. May be nil.
	track func(configPath string)
}

// NewRegistry creates a registry rooted at the given workspace directory.
func NewRegistry(root string, logger *log.Logger) *Registry {
	return &Registry{
		root:     root,
		scopes:   make(map[string]*Scope),
		notifier: NewNotifier(),
		logger:   logger,
	}
}

// Notifier returns the lifecycle event source for this registry.
func (r *Registry) Notifier() *Notifier { return r.notifier }

// Root returns the workspace root this registry serves.
func (r *Registry) Root() string { return r.root }

// SetTracker installs a callback invoked once per newly discovered
// config file. Used to wire the file watcher.
func (r *Registry) SetTracker(fn func(configPath string)) {
	r.mu.Lock()
	r.track = fn
	r.mu.Unlock()
}

// Resolve returns the scope whose config file is nearest to path,
// walking from the document's directory up to the workspace root.
// Returns nil when no config file governs the document.
func (r *Registry) Resolve(ctx context.Context, text, path string) (*Scope, error) {
	configPath := r.findConfig(path)
	if configPath == "" {
		return nil, nil
	}
	return r.load(configPath)
}

// ResolveNearest is the fallback resolution: when no config file
// exists it returns the built-in fallback scope. Never returns nil
// without an error.
func (r *Registry) ResolveNearest(ctx context.Context, text, path string) (*Scope, error) {
	s, err := r.Resolve(ctx, text, path)
	if err != nil || s != nil {
		return s, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fallback == nil {
		r.fallback = Default(r.root)
	}
	return r.fallback, nil
}

// Reload re-parses the config file behind a scope. The old Scope
// object is retired and subscribers are notified with it; subsequent
// resolutions return a fresh object. A reload of an untracked path is
// a no-op.
func (r *Registry) Reload(configPath string) {
	r.mu.Lock()
	old, ok := r.scopes[configPath]
	if ok {
		delete(r.scopes, configPath)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.logger.Info("scope reloaded", "config", configPath)
	r.notifier.FireReload(old)
}

// Unload removes the scope for a deleted config file and notifies
// subscribers with the retired object.
func (r *Registry) Unload(configPath string) {
	r.mu.Lock()
	old, ok := r.scopes[configPath]
	if ok {
		delete(r.scopes, configPath)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.logger.Info("scope unloaded", "config", configPath)
	r.notifier.FireUnload(old)
}

// load returns the live scope for a config path, parsing it on first use.
func (r *Registry) load(configPath string) (*Scope, error) {
	r.mu.RLock()
	s, ok := r.scopes[configPath]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	r.mu.Lock()
	// Another request may have loaded it while we read the file; keep
	// the first object so identity stays stable.
	if existing, ok := r.scopes[configPath]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	s = Parse(configPath, filepath.Dir(configPath), data)
	r.scopes[configPath] = s
	track := r.track
	r.mu.Unlock()

	if track != nil {
		track(configPath)
	}
	return s, nil
}

// findConfig walks from the document's directory up to the workspace
// root looking for a config file.
func (r *Registry) findConfig(path string) string {
	dir := filepath.Dir(path)
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		if dir == r.root || dir == filepath.Dir(dir) {
			return ""
		}
		dir = filepath.Dir(dir)
	}
}
