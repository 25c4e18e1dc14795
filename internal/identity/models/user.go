package models

import (
	"time"

	id "vaultspark/pkg/domain"
)

// User is a local account known to the identity provider.
type User struct {
	ID                id.UserID
	Email             string
	PasswordHash      string
	ConfirmationToken string
	ConfirmedAt       *time.Time
	CreatedAt         time.Time
}

// Confirmed reports whether the user has confirmed their e-mail address.
func (u *User) Confirmed() bool {
	return u != nil && u.ConfirmedAt != nil
}
