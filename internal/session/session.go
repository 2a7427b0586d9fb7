// Package session tracks per-client document state. A session owns at
// most one built document: uploading replaces it, reset clears it, and
// idle sessions are evicted after a TTL.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/doctree"
	"github.com/coderRohan123/DELINEATE-AND-DECIPHER/internal/retrieval"
)

// ErrNoDocument is returned when a query arrives before any document
// has been built in the session.
var ErrNoDocument = errors.New("no document indexed in this session")

// Session is one client's workspace.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time

	updatedAt time.Time
	doc       *doctree.Document
	snap      *retrieval.Snapshot
}

// Install replaces the session's document after a successful build.
func (s *Session) Install(doc *doctree.Document, snap *retrieval.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.snap = snap
	s.updatedAt = time.Now()
}

// Current returns the built document state, or ErrNoDocument.
func (s *Session) Current() (*doctree.Document, *retrieval.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, nil, ErrNoDocument
	}
	s.updatedAt = time.Now()
	return s.doc, s.snap, nil
}

// Reset drops the document. Resetting an empty session is a no-op.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
	s.snap = nil
	s.updatedAt = time.Now()
}

func (s *Session) HasDocument() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != nil
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Manager is a thread-safe session registry with TTL eviction.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Acquire returns the session with the given id, creating it on first
// use. A blank id gets a fresh one assigned.
func (m *Manager) Acquire(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	} else if s, ok := m.sessions[id]; ok {
		s.touch()
		return s
	}
	now := time.Now()
	s := &Session{ID: id, CreatedAt: now, updatedAt: now}
	m.sessions[id] = s
	return s
}

// Get returns an existing session, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Cleanup removes sessions idle longer than the TTL and reports how
// many were dropped.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastUsed()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Sweep runs Cleanup on the given cadence until ctx is done.
func (m *Manager) Sweep(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Cleanup()
		}
	}
}
