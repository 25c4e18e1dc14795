package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
)

var (
	tokenService = NewTokenService("test-signing-key-0123456789", "test-issuer")
	tokenIdent   = models.Identity{UserID: id.NewUserID(), Email: "jwt@example.com"}
	tokenNow     = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
)

func TestGenerateAndValidate(t *testing.T) {
	sessionID := id.NewSessionID()
	token, err := tokenService.Generate(tokenIdent, sessionID, TokenAccess, tokenNow, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokenService.Validate(token, TokenAccess, tokenNow.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, tokenNow.Add(time.Hour), claims.ExpiresAt.Time)

	ident, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, tokenIdent, ident)
}

func TestValidateRejects(t *testing.T) {
	access, err := tokenService.Generate(tokenIdent, id.NewSessionID(), TokenAccess, tokenNow, time.Hour)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := tokenService.Validate("not-a-token", TokenAccess, tokenNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		_, err := tokenService.Validate(access, TokenAccess, tokenNow.Add(2*time.Hour))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := tokenService.Validate(access, TokenRefresh, tokenNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("other key", func(t *testing.T) {
		other := NewTokenService("another-signing-key-987654", "test-issuer")
		_, err := other.Validate(access, TokenAccess, tokenNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewTokenService("test-signing-key-0123456789", "someone-else")
		_, err := other.Validate(access, TokenAccess, tokenNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
