// Package session persists the daemon's current session so it can be
// restored after a restart.
package session

import (
	"time"

	"vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
)

// record is the stored form of a session. models.Session hides its tokens
// from JSON, so it cannot be stored directly.
type record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       id.UserID `json:"user_id"`
	Email        string    `json:"email"`
}

func toRecord(s *models.Session) record {
	return record{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		UserID:       s.Identity.UserID,
		Email:        s.Identity.Email,
	}
}

func (r record) session() *models.Session {
	return &models.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
		Identity:     models.Identity{UserID: r.UserID, Email: r.Email},
	}
}
