package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vaultspark/internal/identity/models"
	"vaultspark/internal/platform/postgres"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/platform/sentinel"
)

const userColumns = `id, email, password_hash, confirmation_token, confirmed_at, created_at`

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	var token sql.NullString
	if user.ConfirmationToken != "" {
		token = sql.NullString{String: user.ConfirmationToken, Valid: true}
	}
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(user.ID), user.Email, user.PasswordHash, token, user.ConfirmedAt, user.CreatedAt)
	if err != nil {
		return postgres.Classify(fmt.Errorf("insert user: %w", err))
	}
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	return s.scanOne(row, "find user by id")
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return s.scanOne(row, "find user by email")
}

func (s *PostgresUserStore) ConfirmByToken(ctx context.Context, token string, at time.Time) (*models.User, error) {
	if token == "" {
		return nil, sentinel.ErrNotFound
	}
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		UPDATE users SET confirmed_at = $2, confirmation_token = NULL
		WHERE confirmation_token = $1
		RETURNING `+userColumns, token, at)
	return s.scanOne(row, "confirm user")
}

func (s *PostgresUserStore) scanOne(row *sql.Row, op string) (*models.User, error) {
	var (
		u           models.User
		rawID       uuid.UUID
		token       sql.NullString
		confirmedAt sql.NullTime
	)
	err := row.Scan(&rawID, &u.Email, &u.PasswordHash, &token, &confirmedAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("%s: %w", op, err))
	}
	u.ID = id.UserID(rawID)
	u.ConfirmationToken = token.String
	if confirmedAt.Valid {
		t := confirmedAt.Time
		u.ConfirmedAt = &t
	}
	return &u, nil
}
