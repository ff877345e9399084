package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/temaribet/lms/internal/domain"
)

// ErrInvalidSession is the single failure mode Validate exposes. Expired,
// forged, and superseded tokens are deliberately indistinguishable to
// callers; the sub-cause goes to the log, never to the client.
var ErrInvalidSession = errors.New("auth: invalid session")

// SessionStore persists the single active session nonce per user.
type SessionStore interface {
	// UpdateActiveSessionID replaces the stored nonce for the user,
	// invalidating any previously issued session.
	UpdateActiveSessionID(ctx context.Context, userID, sessionID string) error
	// ReadActiveSessionID returns the currently persisted nonce for the
	// user. An account with no live session returns an empty string.
	ReadActiveSessionID(ctx context.Context, userID string) (string, error)
}

// Authority issues and validates sessions. Each issued session carries a
// fresh nonce persisted as the user's only active session, so a later login
// on another device silently revokes earlier ones. Validation always round
// trips through the store: a signed, unexpired token is still rejected when
// its nonce no longer matches.
type Authority struct {
	tokens *TokenManager
	store  SessionStore
	logger *slog.Logger
}

// NewAuthority creates a session authority backed by the given store.
func NewAuthority(tokens *TokenManager, store SessionStore, logger *slog.Logger) *Authority {
	return &Authority{
		tokens: tokens,
		store:  store,
		logger: logger,
	}
}

// TTL returns the session lifetime, for cookie expiry.
func (a *Authority) TTL() time.Duration {
	return a.tokens.TTL()
}

// Issue creates a new session for the user. The nonce is persisted before
// the token is signed; if persistence fails no token is produced, so a
// session that exists on the wire always exists in the store.
func (a *Authority) Issue(ctx context.Context, user *domain.User) (string, error) {
	sessionID := uuid.NewString()

	if err := a.store.UpdateActiveSessionID(ctx, user.ID, sessionID); err != nil {
		return "", fmt.Errorf("persist session nonce: %w", err)
	}

	token, err := a.tokens.Sign(user, sessionID)
	if err != nil {
		return "", err
	}

	a.logger.Info("session issued",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role.Name),
	)

	return token, nil
}

// Validate checks signature, expiry, and the store-backed nonce. Every
// failure collapses into ErrInvalidSession; the distinction between a forged
// token and a superseded one is logged but never returned.
func (a *Authority) Validate(ctx context.Context, token string) (*SessionClaims, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		a.logger.Debug("session rejected", slog.String("reason", "token verification failed"), slog.String("error", err.Error()))
		return nil, ErrInvalidSession
	}

	active, err := a.store.ReadActiveSessionID(ctx, claims.UserID)
	if err != nil {
		a.logger.Warn("session rejected",
			slog.String("reason", "session store unavailable"),
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
		return nil, ErrInvalidSession
	}

	if active == "" || active != claims.SessionID {
		a.logger.Info("session rejected",
			slog.String("reason", "session superseded"),
			slog.String("user_id", claims.UserID),
		)
		return nil, ErrInvalidSession
	}

	return claims, nil
}

// Revoke invalidates the user's current session by overwriting the stored
// nonce with a fresh value that was never issued in a token.
func (a *Authority) Revoke(ctx context.Context, userID string) error {
	if err := a.store.UpdateActiveSessionID(ctx, userID, uuid.NewString()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	a.logger.Info("session revoked", slog.String("user_id", userID))
	return nil
}
