package store

import (
	"context"
	"sync"
	"time"

	"kycflow/pkg/platform/sentinel"
)

type cachedSession struct {
	values    map[string][]byte
	touchedAt time.Time
}

// InMemoryStore keeps session snapshots in process memory. A session expires
// ttl after its last write.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]cachedSession
	ttl      time.Duration
	now      func() time.Time
}

type MemoryOption func(*InMemoryStore)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

func NewInMemoryStore(ttl time.Duration, opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]cachedSession),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.liveLocked(sessionID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	value, ok := session.values[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *InMemoryStore) GetAll(_ context.Context, sessionID string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte)
	session, ok := s.liveLocked(sessionID)
	if !ok {
		return out, nil
	}
	for key, value := range session.values {
		out[key] = append([]byte(nil), value...)
	}
	return out, nil
}

func (s *InMemoryStore) Put(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.liveLocked(sessionID)
	if !ok {
		session = cachedSession{values: make(map[string][]byte)}
	}
	session.values[key] = append([]byte(nil), value...)
	session.touchedAt = s.now()
	s.sessions[sessionID] = session
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// liveLocked returns the session when present and unexpired. Expired
// sessions are left for the next Put or Delete to overwrite.
func (s *InMemoryStore) liveLocked(sessionID string) (cachedSession, bool) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return cachedSession{}, false
	}
	if s.ttl > 0 && s.now().Sub(session.touchedAt) >= s.ttl {
		return cachedSession{}, false
	}
	return session, true
}
