//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vaultspark/internal/roles/store"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/testutil/containers"
)

func TestPostgresRoles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx, "user_roles"))
	s := store.NewPostgres(pg.DB)

	admin := id.NewUserID()
	require.NoError(t, s.Grant(ctx, admin, "admin"))
	require.NoError(t, s.Grant(ctx, admin, "Admin"))

	ok, err := s.HasRole(ctx, admin, "admin")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasRole(ctx, id.NewUserID(), "admin")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Revoke(ctx, admin, "admin"))
	ok, err = s.HasRole(ctx, admin, "admin")
	require.NoError(t, err)
	require.False(t, ok)
}
