package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vaultspark/pkg/domain"
)

func TestInMemoryRoles(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	admin, user := id.NewUserID(), id.NewUserID()

	require.NoError(t, s.Grant(ctx, admin, "admin"))
	require.NoError(t, s.Grant(ctx, admin, " Admin "))

	ok, err := s.HasRole(ctx, admin, "ADMIN")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasRole(ctx, user, "admin")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Revoke(ctx, admin, "admin"))
	ok, _ = s.HasRole(ctx, admin, "admin")
	assert.False(t, ok)

	require.NoError(t, s.Revoke(ctx, user, "admin"), "revoking an absent role is a no-op")
}
