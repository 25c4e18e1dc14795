package wallet

import (
	"context"

	"vaultspark/internal/notify"
	profilemodels "vaultspark/internal/profile/models"
	sessionmodels "vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
)

// Provider enumerates wallet accounts. RequestAccounts may prompt the user
// and take arbitrarily long.
type Provider interface {
	IsAvailable() bool
	RequestAccounts(ctx context.Context) ([]string, error)
}

// ProfileWriter persists the linked address.
type ProfileWriter interface {
	UpdateProfile(ctx context.Context, userID id.UserID, update profilemodels.Update) (*profilemodels.Profile, error)
}

// SessionView exposes the current session snapshot.
type SessionView interface {
	State() sessionmodels.Snapshot
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notice)
}
