package session

import (
	"context"
	"sync"
	"time"
)

// Store is a thread-safe in-memory document registry with TTL eviction.
type Store struct {
	mu   sync.Mutex
	docs map[string]*Document
	ttl  time.Duration
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		docs: make(map[string]*Document),
		ttl:  ttl,
	}
}

func (s *Store) Put(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

// Get returns nil for unknown or expired documents.
func (s *Store) Get(id string) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[id]
	if doc == nil || s.expired(doc, time.Now()) {
		return nil
	}
	return doc
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Cleanup removes expired documents and reports how many were dropped.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, doc := range s.docs {
		if s.expired(doc, now) {
			delete(s.docs, id)
			removed++
		}
	}
	return removed
}

// Janitor runs Cleanup every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

func (s *Store) expired(doc *Document, now time.Time) bool {
	doc.mu.Lock()
	updated := doc.UpdatedAt
	doc.mu.Unlock()
	return now.Sub(updated) > s.ttl
}
