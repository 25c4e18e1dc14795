package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "vaultspark/pkg/domain"
)

// Status is the lifecycle state of a ledger entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TypeBuy is the only transaction type that adds to a balance.
const TypeBuy = "buy"

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Transaction is one ledger row. TransactionType is an open tag; anything
// other than "buy" counts as an outflow.
type Transaction struct {
	ID              id.TransactionID    `json:"id"`
	UserID          id.UserID           `json:"user_id"`
	TransactionHash string              `json:"transaction_hash,omitempty"`
	TransactionType string              `json:"transaction_type"`
	Amount          decimal.NullDecimal `json:"amount"`
	TokenSymbol     string              `json:"token_symbol,omitempty"`
	Status          Status              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

// AmountOrZero returns the amount, treating a missing amount as zero.
func (t Transaction) AmountOrZero() decimal.Decimal {
	if !t.Amount.Valid {
		return decimal.Zero
	}
	return t.Amount.Decimal
}

func (t Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Order selects the sort order of a listing by CreatedAt.
type Order int

const (
	OrderNone Order = iota
	OrderNewestFirst
	OrderOldestFirst
)

// Filter narrows a listing. Zero-valued fields do not filter.
type Filter struct {
	UserID       id.UserID
	Status       Status
	CreatedAfter time.Time
}

// Matches reports whether tx passes the filter.
func (f Filter) Matches(tx Transaction) bool {
	if !f.UserID.IsNil() && tx.UserID != f.UserID {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	if !f.CreatedAfter.IsZero() && !tx.CreatedAt.After(f.CreatedAfter) {
		return false
	}
	return true
}
