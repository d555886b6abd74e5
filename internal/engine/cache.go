package engine

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dshills/classlens/internal/scope"
)

// Cache memoizes one engine per live scope, keyed by scope identity.
// Construction happens under the lock, so a scope can never end up
// with two engines no matter how many requests race on it. Entries
// live until a lifecycle event invalidates them; there is no expiry
// and no capacity bound.
type Cache struct {
	mu      sync.Mutex
	engines map[*scope.Scope]*Engine
	logger  *log.Logger
}

// NewCache creates an empty engine cache.
func NewCache(logger *log.Logger) *Cache {
	return &Cache{
		engines: make(map[*scope.Scope]*Engine),
		logger:  logger,
	}
}

// GetOrCreate returns the cached engine for a scope, building one on
// first use. No side effect when already cached.
func (c *Cache) GetOrCreate(s *scope.Scope) *Engine {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.engines[s]; ok {
		return e
	}

	e := New(s)
	c.engines[s] = e
	c.logger.Debug("engine built", "config", s.ConfigPath(), "classes", e.ClassCount())
	return e
}

// Invalidate drops the cached engine for a scope. No-op when the
// scope has no entry.
func (c *Cache) Invalidate(s *scope.Scope) {
	c.mu.Lock()
	if _, ok := c.engines[s]; ok {
		delete(c.engines, s)
		c.logger.Debug("engine invalidated", "config", s.ConfigPath())
	}
	c.mu.Unlock()
}

// Len returns the number of cached engines.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.engines)
}

// Bind subscribes the cache to a scope lifecycle notifier so reloads
// and unloads drop the retired scope's engine immediately.
func (c *Cache) Bind(n *scope.Notifier) {
	n.OnReload(c.Invalidate)
	n.OnUnload(c.Invalidate)
}
