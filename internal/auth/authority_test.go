package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock Session Store ---

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) UpdateActiveSessionID(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *mockSessionStore) ReadActiveSessionID(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestAuthority(store *mockSessionStore) *Authority {
	tm, err := NewTokenManager("test-secret-key-for-testing", 24*time.Hour)
	if err != nil {
		panic(err)
	}
	return NewAuthority(tm, store, newTestLogger())
}

func TestAuthority_IssueThenValidate(t *testing.T) {
	store := new(mockSessionStore)
	authority := newTestAuthority(store)
	ctx := context.Background()
	user := testUser()

	var persisted string
	store.On("UpdateActiveSessionID", ctx, user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { persisted = args.String(2) }).
		Return(nil)

	token, err := authority.Issue(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, persisted)

	store.On("ReadActiveSessionID", ctx, user.ID).Return(persisted, nil)

	claims, err := authority.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, persisted, claims.SessionID)
}

func TestAuthority_SecondLoginRevokesFirst(t *testing.T) {
	store := new(mockSessionStore)
	authority := newTestAuthority(store)
	ctx := context.Background()
	user := testUser()

	var latest string
	store.On("UpdateActiveSessionID", ctx, user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { latest = args.String(2) }).
		Return(nil)

	first, err := authority.Issue(ctx, user)
	require.NoError(t, err)
	second, err := authority.Issue(ctx, user)
	require.NoError(t, err)

	// The store now holds the nonce from the second login.
	store.On("ReadActiveSessionID", ctx, user.ID).Return(latest, nil)

	_, err = authority.Validate(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidSession)

	claims, err := authority.Validate(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthority_Validate_IssueFailsWhenStoreFails(t *testing.T) {
	store := new(mockSessionStore)
	authority := newTestAuthority(store)
	ctx := context.Background()

	store.On("UpdateActiveSessionID", ctx, "user-1", mock.AnythingOfType("string")).
		Return(errors.New("connection refused"))

	token, err := authority.Issue(ctx, testUser())
	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestAuthority_Validate_StoreUnavailable(t *testing.T) {
	store := new(mockSessionStore)
	authority := newTestAuthority(store)
	ctx := context.Background()
	user := testUser()

	var persisted string
	store.On("UpdateActiveSessionID", ctx, user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { persisted = args.String(2) }).
		Return(nil)

	token, err := authority.Issue(ctx, user)
	require.NoError(t, err)
	_ = persisted

	store.On("ReadActiveSessionID", ctx, user.ID).Return("", errors.New("connection refused"))

	_, err = authority.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthority_Validate_NoActiveSession(t *testing.T) {
	store := new(mockSessionStore)
	authority := newTestAuthority(store)
	ctx := context.Background()
	user := testUser()

	store.On("UpdateActiveSessionID", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)

	token, err := authority.Issue(ctx, user)
	require.NoError(t, err)

	store.On("ReadActiveSessionID", ctx, user.ID).Return("", nil)

	_, err = authority.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthority_Validate_ForgedToken(t *testing.T) {
	store := new(mockSessionStore)
	authority := newTestAuthority(store)

	_, err := authority.Validate(context.Background(), "forged.token.value")
	assert.ErrorIs(t, err, ErrInvalidSession)
	// A forged token never reaches the store.
	store.AssertNotCalled(t, "ReadActiveSessionID", mock.Anything, mock.Anything)
}

func TestAuthority_Revoke(t *testing.T) {
	store := new(mockSessionStore)
	authority := newTestAuthority(store)
	ctx := context.Background()
	user := testUser()

	var persisted []string
	store.On("UpdateActiveSessionID", ctx, user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { persisted = append(persisted, args.String(2)) }).
		Return(nil)

	token, err := authority.Issue(ctx, user)
	require.NoError(t, err)

	require.NoError(t, authority.Revoke(ctx, user.ID))
	require.Len(t, persisted, 2)

	// The revocation nonce was never signed into any token, so the old
	// session no longer validates.
	store.On("ReadActiveSessionID", ctx, user.ID).Return(persisted[1], nil)
	_, err = authority.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
