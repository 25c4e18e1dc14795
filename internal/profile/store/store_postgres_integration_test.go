//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vaultspark/internal/platform/postgres"
	"vaultspark/internal/profile/models"
	"vaultspark/internal/profile/store"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/platform/sentinel"
	"vaultspark/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "profiles"))
}

func ptr(v string) *string { return &v }

func (s *PostgresStoreSuite) TestCreateUpdateList() {
	ctx := context.Background()
	userID := id.NewUserID()
	s.Require().NoError(s.store.CreateProfile(ctx, models.Profile{UserID: userID, Username: "alice"}))

	err := s.store.CreateProfile(ctx, models.Profile{UserID: userID})
	s.ErrorIs(err, sentinel.ErrConflict)

	wallet := "0x00000000000000000000000000000000000000aa"
	updated, err := s.store.UpdateProfile(ctx, userID, models.Update{WalletAddress: &wallet})
	s.Require().NoError(err)
	s.Equal("alice", updated.Username, "unset fields are kept")
	s.Equal(wallet, updated.WalletAddress)

	updated, err = s.store.UpdateProfile(ctx, userID, models.Update{Username: ptr("")})
	s.Require().NoError(err)
	s.Empty(updated.Username)
	s.Equal(wallet, updated.WalletAddress)

	_, err = s.store.UpdateProfile(ctx, id.NewUserID(), models.Update{Username: ptr("x")})
	s.ErrorIs(err, sentinel.ErrNotFound)

	all, err := s.store.ListProfiles(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresStoreSuite) TestMalformedWalletRejectedBySchema() {
	ctx := context.Background()
	userID := id.NewUserID()
	s.Require().NoError(s.store.CreateProfile(ctx, models.Profile{UserID: userID}))

	bad := "0xABC"
	_, err := s.store.UpdateProfile(ctx, userID, models.Update{WalletAddress: &bad})
	s.Error(err)
}

func (s *PostgresStoreSuite) TestRollbackWithTxRunner() {
	ctx := context.Background()
	userID := id.NewUserID()
	runner := postgres.NewTxRunner(s.pg.DB)

	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateProfile(ctx, models.Profile{UserID: userID, CreatedAt: time.Now()}); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.GetProfile(ctx, userID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
