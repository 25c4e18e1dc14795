package httptransport

import (
	"context"

	"vaultspark/internal/analytics"
	ledgermodels "vaultspark/internal/ledger/models"
	"vaultspark/internal/notify"
	profilemodels "vaultspark/internal/profile/models"
	profileservice "vaultspark/internal/profile/service"
	"vaultspark/internal/session/models"
	"vaultspark/internal/wallet"
	id "vaultspark/pkg/domain"
)

// SessionService is the session manager as seen by the HTTP layer.
type SessionService interface {
	SignUp(ctx context.Context, email, password string) (models.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	State() models.Snapshot
	Profile() *profilemodels.Profile
	OnSessionChange(handler func(models.Snapshot)) (unsubscribe func())
}

// EmailConfirmer consumes e-mail confirmation tokens.
type EmailConfirmer interface {
	ConfirmEmail(ctx context.Context, token string) error
}

type WalletService interface {
	ConnectWallet(ctx context.Context) (wallet.Connection, error)
	Connection() wallet.Connection
}

type ProfileService interface {
	Get(ctx context.Context, userID id.UserID) (*profilemodels.Profile, error)
	Update(ctx context.Context, userID id.UserID, req profileservice.UpdateRequest) (*profilemodels.Profile, error)
}

type AnalyticsService interface {
	Portfolio(ctx context.Context, userID id.UserID) (analytics.PortfolioStats, error)
	RecentTransactions(ctx context.Context, userID id.UserID, limit int) ([]ledgermodels.Transaction, error)
	Platform(ctx context.Context, userID id.UserID) (analytics.PlatformStats, error)
}

type NoticeFeed interface {
	List(afterID uint64) []notify.Notice
}
