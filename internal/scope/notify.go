package scope

import "sync"

// Listener is called with the retired scope when a lifecycle event fires.
type Listener func(s *Scope)

// Subscription represents an active lifecycle listener.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
		s.notifier = nil
	}
}

// Notifier delivers scope reload and unload events to subscribers.
// Events fire synchronously on the goroutine that triggered them, so
// listeners must be cheap; cache invalidation is the intended use.
type Notifier struct {
	mu     sync.RWMutex
	nextID uint64
	reload map[uint64]Listener
	unload map[uint64]Listener
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		reload: make(map[uint64]Listener),
		unload: make(map[uint64]Listener),
	}
}

// OnReload registers a listener for scope reload events.
// The listener receives the retired scope object.
func (n *Notifier) OnReload(fn Listener) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.reload[n.nextID] = fn
	return &Subscription{id: n.nextID, notifier: n}
}

// OnUnload registers a listener for scope unload events.
func (n *Notifier) OnUnload(fn Listener) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.unload[n.nextID] = fn
	return &Subscription{id: n.nextID, notifier: n}
}

func (n *Notifier) FireReload(s *Scope) {
	n.mu.RLock()
	listeners := make([]Listener, 0, len(n.reload))
	for _, fn := range n.reload {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (n *Notifier) FireUnload(s *Scope) {
	n.mu.RLock()
	listeners := make([]Listener, 0, len(n.unload))
	for _, fn := range n.unload {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	delete(n.reload, id)
	delete(n.unload, id)
	n.mu.Unlock()
}
