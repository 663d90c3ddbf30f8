package session

import (
	"context"
	"sync"
	"time"
)

const janitorInterval = time.Minute

type memorySession struct {
	seen     map[int]struct{}
	deadline time.Time // zero when expiry is disabled
}

// MemoryStore is the in-process fallback session store. Seen-sets are
// lost on restart. Expired sessions are dropped lazily on access and
// swept periodically by a janitor goroutine.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory session store. A ttl of 0
// disables expiry; sessions then live until the process stops.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	if ttl > 0 {
		go s.janitor()
	}

	return s
}

func (s *MemoryStore) Seen(ctx context.Context, sessionID string) (map[int]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		delete(s.sessions, sessionID)
		return map[int]struct{}{}, nil
	}

	seen := make(map[int]struct{}, len(sess.seen))
	for idx := range sess.seen {
		seen[idx] = struct{}{}
	}

	return seen, nil
}

func (s *MemoryStore) MarkSeen(ctx context.Context, sessionID string, indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		sess = &memorySession{seen: make(map[int]struct{})}
		s.sessions[sessionID] = sess
	}

	for _, idx := range indices {
		sess.seen[idx] = struct{}{}
	}

	if s.ttl > 0 {
		sess.deadline = s.now().Add(s.ttl)
	}

	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Close stops the janitor goroutine. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	return nil
}

func (s *MemoryStore) expired(sess *memorySession) bool {
	return !sess.deadline.IsZero() && s.now().After(sess.deadline)
}

func (s *MemoryStore) janitor() {
	interval := janitorInterval
	if s.ttl < interval {
		interval = s.ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
		}
	}
}
