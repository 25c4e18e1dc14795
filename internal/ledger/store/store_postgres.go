package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vaultspark/internal/ledger/models"
	"vaultspark/internal/platform/postgres"
	id "vaultspark/pkg/domain"
)

const transactionColumns = `id, user_id, transaction_hash, transaction_type, amount, token_symbol, status, created_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID.IsNil() {
		tx.ID = id.NewTransactionID()
	}
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(tx.ID),
		uuid.UUID(tx.UserID),
		nullString(tx.TransactionHash),
		tx.TransactionType,
		tx.Amount,
		nullString(tx.TokenSymbol),
		string(tx.Status),
		tx.CreatedAt,
	)
	if err != nil {
		return models.Transaction{}, postgres.Classify(fmt.Errorf("insert transaction: %w", err))
	}
	return tx, nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, filter models.Filter, order models.Order, limit int) ([]models.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !filter.UserID.IsNil() {
		args = append(args, uuid.UUID(filter.UserID))
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.CreatedAfter.IsZero() {
		args = append(args, filter.CreatedAfter)
		where = append(where, fmt.Sprintf("created_at > $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + transactionColumns + ` FROM transactions`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	switch order {
	case models.OrderNewestFirst:
		b.WriteString(" ORDER BY created_at DESC")
	case models.OrderOldestFirst:
		b.WriteString(" ORDER BY created_at ASC")
	}
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("list transactions: %w", err))
	}
	defer rows.Close()

	out := make([]models.Transaction, 0)
	for rows.Next() {
		var (
			tx           models.Transaction
			txID, userID uuid.UUID
			hash, symbol sql.NullString
			amount       decimal.NullDecimal
			status       string
		)
		if err := rows.Scan(&txID, &userID, &hash, &tx.TransactionType, &amount, &symbol, &status, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.ID = id.TransactionID(txID)
		tx.UserID = id.UserID(userID)
		tx.TransactionHash = hash.String
		tx.TokenSymbol = symbol.String
		tx.Amount = amount
		tx.Status = models.Status(status)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(fmt.Errorf("iterate transactions: %w", err))
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
