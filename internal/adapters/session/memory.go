package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	field   Field
	expires time.Time
}

// MemoryStore is a process-local Store for tests and single-instance
// deployments without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ttl:     DefaultTTL,
		now:     time.Now,
		pending: make(map[string]entry),
	}
}

func (s *MemoryStore) SetAwaitingField(_ context.Context, userID string, f Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = entry{field: f, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) AwaitingField(_ context.Context, userID string) (Field, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[userID]
	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expires) {
		delete(s.pending, userID)
		return "", false, nil
	}
	return e.field, true, nil
}

func (s *MemoryStore) ClearAwaitingField(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
	return nil
}
