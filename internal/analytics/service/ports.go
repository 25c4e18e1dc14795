package service

import (
	"context"

	ledgermodels "vaultspark/internal/ledger/models"
	profilemodels "vaultspark/internal/profile/models"
	id "vaultspark/pkg/domain"
)

type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]profilemodels.Profile, error)
}

type LedgerReader interface {
	ListTransactions(ctx context.Context, filter ledgermodels.Filter, order ledgermodels.Order, limit int) ([]ledgermodels.Transaction, error)
}

type RoleChecker interface {
	HasRole(ctx context.Context, userID id.UserID, role string) (bool, error)
}
