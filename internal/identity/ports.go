package identity

import (
	"context"
	"time"

	identitymodels "vaultspark/internal/identity/models"
	profilemodels "vaultspark/internal/profile/models"
	"vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
)

// UserStore persists local accounts. Emails are normalised before they reach
// the store.
type UserStore interface {
	Create(ctx context.Context, user *identitymodels.User) error
	FindByID(ctx context.Context, userID id.UserID) (*identitymodels.User, error)
	FindByEmail(ctx context.Context, email string) (*identitymodels.User, error)
	ConfirmByToken(ctx context.Context, token string, at time.Time) (*identitymodels.User, error)
}

// SessionStore keeps the one current session of this daemon.
type SessionStore interface {
	Save(ctx context.Context, sess *models.Session, ttl time.Duration) error
	Load(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}

// ProfileCreator creates the empty profile that accompanies a new account.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, p profilemodels.Profile) error
}

// TxRunner runs fn as one unit of work. Stores called with the context passed
// to fn take part in it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ConfirmationSender delivers an e-mail confirmation token to its owner.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, email, token string) error
}
