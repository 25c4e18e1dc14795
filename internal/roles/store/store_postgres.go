package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"vaultspark/internal/platform/postgres"
	id "vaultspark/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Grant(ctx context.Context, userID id.UserID, role string) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, uuid.UUID(userID), normalize(role))
	if err != nil {
		return postgres.Classify(fmt.Errorf("grant role: %w", err))
	}
	return nil
}

func (s *PostgresStore) Revoke(ctx context.Context, userID id.UserID, role string) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, uuid.UUID(userID), normalize(role))
	if err != nil {
		return postgres.Classify(fmt.Errorf("revoke role: %w", err))
	}
	return nil
}

func (s *PostgresStore) HasRole(ctx context.Context, userID id.UserID, role string) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		uuid.UUID(userID), normalize(role)).Scan(&exists)
	if err != nil {
		return false, postgres.Classify(fmt.Errorf("check role: %w", err))
	}
	return exists, nil
}
