// Package store persists profiles in memory or in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vaultspark/internal/profile/models"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*models.Profile
	clock    func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[id.UserID]*models.Profile),
		clock:    time.Now,
	}
}

// CreateProfile inserts p. An existing profile for the same user is a conflict.
func (s *InMemoryStore) CreateProfile(_ context.Context, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; ok {
		return fmt.Errorf("profile %s: %w", p.UserID, sentinel.ErrConflict)
	}
	now := s.clock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.profiles[p.UserID] = &p
	return nil
}

func (s *InMemoryStore) GetProfile(_ context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpdateProfile applies the set fields of u and returns the stored result.
func (s *InMemoryStore) UpdateProfile(_ context.Context, userID id.UserID, u models.Update) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u.Apply(p, s.clock())
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) ListProfiles(_ context.Context) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	return out, nil
}
