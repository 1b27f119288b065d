package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatepass/pkg/domain-errors"
	"gatepass/pkg/identity"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var userID = uuid.New()
var householdID = uuid.New()
var expiresIn = time.Hour

func residentSpec() TokenSpec {
	return TokenSpec{
		UserID:      userID,
		Roles:       []string{"resident"},
		HouseholdID: &householdID,
		Name:        "Asha",
	}
}

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(residentSpec(), expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, []string{"resident"}, claims.Roles)
	assert.Equal(t, householdID.String(), claims.HouseholdID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.Message(err))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(residentSpec(), -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.Message(err))
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "someone-else")
	token, err := other.GenerateAccessToken(residentSpec(), expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Adapter_BuildsCaller(t *testing.T) {
	adapter := NewJWTServiceAdapter(jwtService)

	t.Run("resident with household", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(residentSpec(), expiresIn)
		require.NoError(t, err)

		caller, err := adapter.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), caller.ID.String())
		assert.True(t, caller.HasRole(identity.RoleResident))
		require.NotNil(t, caller.HouseholdID)
		assert.Equal(t, householdID.String(), caller.HouseholdID.String())
		assert.Equal(t, "Asha", caller.DisplayName)
	})

	t.Run("guard without household", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(TokenSpec{UserID: userID, Roles: []string{"guard"}}, expiresIn)
		require.NoError(t, err)

		caller, err := adapter.ValidateToken(token)
		require.NoError(t, err)
		assert.True(t, caller.HasRole(identity.RoleGuard))
		assert.Nil(t, caller.HouseholdID)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		token, err := jwtService.GenerateAccessToken(TokenSpec{UserID: userID, Roles: []string{"superuser"}}, expiresIn)
		require.NoError(t, err)

		_, err = adapter.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
