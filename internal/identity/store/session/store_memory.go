package session

import (
	"context"
	"sync"
	"time"

	"vaultspark/internal/session/models"
	"vaultspark/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.Mutex
	rec       *record
	expiresAt time.Time
	clock     func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{clock: time.Now}
}

// Save replaces the stored session. It is forgotten after ttl; a zero ttl
// keeps it until Clear.
func (s *InMemoryStore) Save(_ context.Context, sess *models.Session, ttl time.Duration) error {
	rec := toRecord(sess)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	s.expiresAt = time.Time{}
	if ttl > 0 {
		s.expiresAt = s.clock().Add(ttl)
	}
	return nil
}

func (s *InMemoryStore) Load(_ context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, sentinel.ErrNotFound
	}
	if !s.expiresAt.IsZero() && !s.clock().Before(s.expiresAt) {
		s.rec = nil
		return nil, sentinel.ErrNotFound
	}
	return s.rec.session(), nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
