// Package config holds the server settings pushed by the client and
// notifies subscribers when they change.
//
// Settings arrive as raw JSON on workspace/didChangeConfiguration and
// are merged key-by-key into the stored document, so partial payloads
// only touch the sections they carry.
package config

import (
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Section is the top-level settings key classlens reads.
const Section = "classlens"

// Settings is the parsed view of the stored configuration.
type Settings struct {
	// IncludeLanguages is the ordered list of extra language
	// identifiers to activate completion for.
	IncludeLanguages []string

	// LogLevel adjusts server logging ("debug", "info", "warn", "error").
	LogLevel string
}

// Observer is called with the new settings after every change.
type Observer func(s Settings)

// Subscription represents an active settings observer.
type Subscription struct {
	id    uint64
	store *Store
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.store != nil {
		s.store.unsubscribe(s.id)
		s.store = nil
	}
}

// Store owns the raw settings document.
type Store struct {
	mu        sync.RWMutex
	raw       []byte
	nextID    uint64
	observers map[uint64]Observer
}

// NewStore creates a store with empty settings.
func NewStore() *Store {
	return &Store{
		raw:       []byte("{}"),
		observers: make(map[uint64]Observer),
	}
}

// Settings returns the current parsed settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return parse(s.raw)
}

// Update merges a settings payload into the store and notifies
// observers. Top-level keys in the payload replace their stored
// counterparts; absent keys are untouched.
func (s *Store) Update(payload []byte) error {
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return fmt.Errorf("settings payload is not an object")
	}

	s.mu.Lock()
	raw := s.raw
	var err error
	doc.ForEach(func(key, value gjson.Result) bool {
		raw, err = sjson.SetRawBytes(raw, escapeKey(key.String()), []byte(value.Raw))
		return err == nil
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("merge settings: %w", err)
	}
	s.raw = raw
	parsed := parse(raw)
	observers := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(parsed)
	}
	return nil
}

// OnChange registers an observer for settings changes.
func (s *Store) OnChange(fn Observer) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers[s.nextID] = fn
	return &Subscription{id: s.nextID, store: s}
}

func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	delete(s.observers, id)
	s.mu.Unlock()
}

// parse reads the typed settings out of the raw document. Both the
// namespaced form {"classlens": {...}} and bare keys are accepted.
func parse(raw []byte) Settings {
	get := func(key string) gjson.Result {
		if v := gjson.GetBytes(raw, Section+"."+key); v.Exists() {
			return v
		}
		return gjson.GetBytes(raw, key)
	}

	var settings Settings
	for _, v := range get("includeLanguages").Array() {
		settings.IncludeLanguages = append(settings.IncludeLanguages, v.String())
	}
	settings.LogLevel = get("logLevel").String()
	return settings
}

// escapeKey protects dots in client-supplied keys from being read as
// sjson path separators.
func escapeKey(key string) string {
	escaped := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		if key[i] == '.' || key[i] == '*' || key[i] == '?' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, key[i])
	}
	return string(escaped)
}
