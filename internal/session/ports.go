package session

import (
	"context"

	"vaultspark/internal/notify"
	profilemodels "vaultspark/internal/profile/models"
	"vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
)

// IdentityProvider verifies credentials and issues sessions. It may also
// push events (sign-in elsewhere, token refresh, remote sign-out) to the
// handler registered with Subscribe; the handler must not block for long.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (models.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Subscribe(handler func(models.ProviderEvent)) (unsubscribe func())
	CurrentSession(ctx context.Context) (*models.Session, error)
}

// ProfileFetcher loads the profile used for hydration.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, userID id.UserID) (*profilemodels.Profile, error)
}

// WalletState is the wallet connection owned by the wallet linker. The
// manager calls it while holding its own lock, so implementations must not
// call back into the manager. Restore returns the address linked for userID
// after the call, which differs from address when a newer link exists.
type WalletState interface {
	Restore(userID id.UserID, address string) string
	Reset()
}

// Notifier receives user-visible notices.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notice)
}
