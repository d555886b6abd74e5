// Package document tracks open documents and converts between LSP
// positions (UTF-16 line/character) and byte offsets.
package document

import (
	"sync"

	"github.com/dshills/classlens/internal/protocol"
)

// Document is one open text document.
type Document struct {
	URI        protocol.DocumentURI
	Path       string
	LanguageID string
	Version    int
	Text       string
}

// Store tracks open documents by URI. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*Document
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[protocol.DocumentURI]*Document)}
}

// Open registers a newly opened document.
func (s *Store) Open(item protocol.TextDocumentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[item.URI]; exists {
		return ErrDocumentAlreadyOpen
	}

	s.docs[item.URI] = &Document{
		URI:        item.URI,
		Path:       protocol.URIToFilePath(item.URI),
		LanguageID: item.LanguageID,
		Version:    item.Version,
		Text:       item.Text,
	}
	return nil
}

// Change applies a full-sync content change. Documents are replaced,
// not patched; the server advertises full sync only.
func (s *Store) Change(uri protocol.DocumentURI, version int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[uri]
	if !exists {
		return ErrDocumentNotOpen
	}
	doc.Version = version
	doc.Text = text
	return nil
}

// Close removes a document from the store.
func (s *Store) Close(uri protocol.DocumentURI) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[uri]; !exists {
		return ErrDocumentNotOpen
	}
	delete(s.docs, uri)
	return nil
}

// Get returns a snapshot of an open document.
func (s *Store) Get(uri protocol.DocumentURI) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[uri]
	if !exists {
		return Document{}, false
	}
	return *doc, true
}
