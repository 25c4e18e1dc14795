// Package store records which users hold which roles.
package store

import (
	"context"
	"strings"
	"sync"

	id "vaultspark/pkg/domain"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	roles map[id.UserID]map[string]struct{}
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{roles: make(map[id.UserID]map[string]struct{})}
}

// Grant is idempotent.
func (s *InMemoryStore) Grant(_ context.Context, userID id.UserID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.roles[userID]
	if !ok {
		set = make(map[string]struct{})
		s.roles[userID] = set
	}
	set[normalize(role)] = struct{}{}
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, userID id.UserID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles[userID], normalize(role))
	return nil
}

func (s *InMemoryStore) HasRole(_ context.Context, userID id.UserID, role string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[userID][normalize(role)]
	return ok, nil
}

func normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
