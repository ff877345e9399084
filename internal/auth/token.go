package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/temaribet/lms/internal/domain"
)

// ErrMissingSecret is returned by NewTokenManager when no signing secret is
// configured. Running without a secret would make every session forgeable,
// so the caller is expected to treat this as fatal.
var ErrMissingSecret = errors.New("auth: session signing secret is not configured")

// SessionClaims are the JWT claims embedded in a session cookie. SessionID is
// the per-login nonce compared against the persisted active session on every
// request.
type SessionClaims struct {
	UserID             string   `json:"user_id"`
	Name               string   `json:"name"`
	Email              string   `json:"email,omitempty"`
	Role               string   `json:"role"`
	Permissions        []string `json:"permissions,omitempty"`
	SessionID          string   `json:"session_id"`
	TrainingProviderID string   `json:"training_provider_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens with a shared HMAC secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager. An empty secret is a configuration
// error and is rejected up front.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// TTL returns the configured session lifetime. Cookie expiry is kept in sync
// with token expiry.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Sign creates a signed session token for the user with the given session
// nonce.
func (m *TokenManager) Sign(user *domain.User, sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := &SessionClaims{
		UserID:             user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               user.Role.Name,
		Permissions:        user.Role.Permissions,
		SessionID:          sessionID,
		TrainingProviderID: user.TrainingProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Issuer:    "lms",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// Verify parses the token and checks its signature and expiry. It does NOT
// check the session nonce against the store; that is the Authority's job.
func (m *TokenManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims")
	}

	return claims, nil
}
