package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vaultspark/internal/platform/postgres"
	"vaultspark/internal/profile/models"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/platform/sentinel"
)

const profileColumns = `id, username, wallet_address, avatar_url, created_at, updated_at`

// PostgresStore keeps profiles in the profiles table. Calls made inside a
// postgres.TxRunner unit of work join its transaction.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p models.Profile) error {
	now := s.clock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.UserID),
		nullString(p.Username),
		nullString(p.WalletAddress),
		nullString(p.AvatarURL),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return postgres.Classify(fmt.Errorf("insert profile: %w", err))
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, uuid.UUID(userID))
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("get profile: %w", err))
	}
	return p, nil
}

// UpdateProfile writes only the fields set in u; COALESCE keeps the rest.
func (s *PostgresStore) UpdateProfile(ctx context.Context, userID id.UserID, u models.Update) (*models.Profile, error) {
	query := `
		UPDATE profiles SET
			username       = COALESCE($2, username),
			avatar_url     = COALESCE($3, avatar_url),
			wallet_address = COALESCE($4, wallet_address),
			updated_at     = $5
		WHERE id = $1
		RETURNING ` + profileColumns
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(userID),
		u.Username,
		u.AvatarURL,
		u.WalletAddress,
		s.clock(),
	)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("update profile: %w", err))
	}
	return p, nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, postgres.Classify(fmt.Errorf("list profiles: %w", err))
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify(fmt.Errorf("iterate profiles: %w", err))
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*models.Profile, error) {
	var (
		p                        models.Profile
		userID                   uuid.UUID
		username, wallet, avatar sql.NullString
	)
	if err := row.Scan(&userID, &username, &wallet, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.UserID = id.UserID(userID)
	p.Username = username.String
	p.WalletAddress = wallet.String
	p.AvatarURL = avatar.String
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
