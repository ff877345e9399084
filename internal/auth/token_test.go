package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temaribet/lms/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-1",
		Name:  "Sara Bekele",
		Email: "sara@example.com",
		Role: domain.Role{
			ID:          "role-1",
			Name:        domain.RoleAdmin,
			Permissions: []string{"courses:manage"},
		},
		TrainingProviderID: "tp-1",
		IsActive:           true,
	}
}

func TestNewTokenManager_MissingSecret(t *testing.T) {
	_, err := NewTokenManager("", 24*time.Hour)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestTokenManager_SignAndVerify(t *testing.T) {
	tm, err := NewTokenManager("test-secret-key-for-testing", 24*time.Hour)
	require.NoError(t, err)

	token, err := tm.Sign(testUser(), "nonce-abc")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Sara Bekele", claims.Name)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.Equal(t, "nonce-abc", claims.SessionID)
	assert.Equal(t, "tp-1", claims.TrainingProviderID)
	assert.Equal(t, []string{"courses:manage"}, claims.Permissions)
}

func TestTokenManager_Verify_WrongSecret(t *testing.T) {
	tm1, err := NewTokenManager("secret-one-aaaaaaaaaaaa", 24*time.Hour)
	require.NoError(t, err)
	tm2, err := NewTokenManager("secret-two-bbbbbbbbbbbb", 24*time.Hour)
	require.NoError(t, err)

	token, err := tm1.Sign(testUser(), "nonce-abc")
	require.NoError(t, err)

	_, err = tm2.Verify(token)
	assert.Error(t, err)
}

func TestTokenManager_Verify_Expired(t *testing.T) {
	tm, err := NewTokenManager("test-secret-key-for-testing", -time.Minute)
	require.NoError(t, err)

	token, err := tm.Sign(testUser(), "nonce-abc")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.Error(t, err)
}

func TestTokenManager_Verify_RejectsNoneAlgorithm(t *testing.T) {
	tm, err := NewTokenManager("test-secret-key-for-testing", 24*time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{
		UserID:    "user-1",
		SessionID: "nonce-abc",
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.Error(t, err)
}

func TestTokenManager_Verify_Garbage(t *testing.T) {
	tm, err := NewTokenManager("test-secret-key-for-testing", 24*time.Hour)
	require.NoError(t, err)

	_, err = tm.Verify("not-a-jwt")
	assert.Error(t, err)
}
