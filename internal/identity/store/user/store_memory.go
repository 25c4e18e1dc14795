// Package user stores local identity provider accounts.
package user

import (
	"context"
	"sync"
	"time"

	"vaultspark/internal/identity/models"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in a map keyed by id with an email index.
// Emails are expected to be normalised by the caller.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.users[user.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *user
	s.users[user.ID] = &cp
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.users[userID]
	return &cp, nil
}

// ConfirmByToken marks the user holding token as confirmed and consumes the
// token. An unknown or already consumed token is ErrNotFound.
func (s *InMemoryUserStore) ConfirmByToken(_ context.Context, token string, at time.Time) (*models.User, error) {
	if token == "" {
		return nil, sentinel.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ConfirmationToken != token {
			continue
		}
		confirmedAt := at
		u.ConfirmedAt = &confirmedAt
		u.ConfirmationToken = ""
		cp := *u
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}
