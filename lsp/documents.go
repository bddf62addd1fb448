package lsp

import (
	"sort"
	"sync"

	"github.com/dhamidi/pyfront/python/parser"
)

// Document is an open editor buffer and the result of its last parse.
type Document struct {
	URI         string
	Version     int32
	Text        []byte
	Ast         *parser.Ast
	Diagnostics []parser.Diagnostic

	lines *lineIndex
}

// DocumentStore holds the open documents. It is safe for concurrent use.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Put replaces the document at uri. An update older than the stored
// version is ignored and Put reports false.
func (s *DocumentStore) Put(doc *Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.docs[doc.URI]; ok && prev.Version > doc.Version {
		return false
	}
	s.docs[doc.URI] = doc
	return true
}

func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

func (s *DocumentStore) Remove(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// URIs returns the open document URIs in sorted order.
func (s *DocumentStore) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}
