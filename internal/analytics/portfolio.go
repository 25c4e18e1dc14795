// Package analytics derives portfolio and platform metrics from ledger rows.
//
// Everything here is a pure function of its inputs: no I/O, no clock reads,
// and no dependence on input order. Amounts are summed as decimals.
package analytics

import (
	"github.com/shopspring/decimal"

	"vaultspark/internal/ledger/models"
	id "vaultspark/pkg/domain"
)

// profitLossRate is a flat valuation applied to the balance. It is not a real
// profit and loss figure.
var profitLossRate = decimal.RequireFromString("0.15")

// PortfolioStats summarises one user's completed ledger activity.
type PortfolioStats struct {
	TotalBalance      decimal.Decimal `json:"total_balance"`
	TotalTransactions int             `json:"total_transactions"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	ActivePositions   int             `json:"active_positions"`
}

// Portfolio computes the stats for userID over txs. Rows owned by other users
// are ignored; a nil userID disables scoping. Only completed rows count:
// buys add to the balance and every other type subtracts.
func Portfolio(userID id.UserID, txs []models.Transaction) PortfolioStats {
	balance := decimal.Zero
	completed := 0
	for _, tx := range txs {
		if !userID.IsNil() && tx.UserID != userID {
			continue
		}
		if !tx.IsCompleted() {
			continue
		}
		completed++
		if tx.TransactionType == models.TypeBuy {
			balance = balance.Add(tx.AmountOrZero())
		} else {
			balance = balance.Sub(tx.AmountOrZero())
		}
	}

	return PortfolioStats{
		TotalBalance:      balance,
		TotalTransactions: completed,
		ProfitLoss:        balance.Mul(profitLossRate),
		ActivePositions:   completed / 2,
	}
}
