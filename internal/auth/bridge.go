package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/temaribet/lms/pkg/errors"

	"github.com/temaribet/lms/internal/domain"
)

var (
	// ErrNoToken means no external token was presented, so auto-login was
	// never attempted.
	ErrNoToken = errors.New("auth: no external token")

	// ErrNotRegistered means the external token was valid but its phone
	// number has no account here. The bridge never provisions accounts on
	// its own.
	ErrNotRegistered = errors.New("auth: phone not registered")

	// ErrTokenRejected means the external identity provider did not vouch
	// for the token.
	ErrTokenRejected = errors.New("auth: external token rejected")
)

// PhoneResolver turns an external bearer token into a verified phone number.
// Implemented by the identity service client.
type PhoneResolver interface {
	ResolvePhone(ctx context.Context, token string) (string, error)
}

// UserFinder looks up local accounts by phone number.
type UserFinder interface {
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
}

// Bridge converts an external platform token into a local session. It fails
// closed at every step: no token, rejected token, unknown phone, and
// deactivated accounts all end without a session.
type Bridge struct {
	resolver  PhoneResolver
	users     UserFinder
	authority *Authority
	logger    *slog.Logger
}

// NewBridge creates an auto-login bridge.
func NewBridge(resolver PhoneResolver, users UserFinder, authority *Authority, logger *slog.Logger) *Bridge {
	return &Bridge{
		resolver:  resolver,
		users:     users,
		authority: authority,
		logger:    logger,
	}
}

// TryAutoLogin resolves the external token to a phone number, finds the
// matching account, and issues a fresh session for it. The issued session
// replaces any earlier one, the same as a password login.
func (b *Bridge) TryAutoLogin(ctx context.Context, externalToken string) (*domain.User, string, error) {
	if externalToken == "" {
		return nil, "", ErrNoToken
	}

	phone, err := b.resolver.ResolvePhone(ctx, externalToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrServiceUnavail) {
			b.logger.Warn("auto-login skipped, identity provider unavailable", slog.String("error", err.Error()))
			return nil, "", fmt.Errorf("resolve external token: %w", err)
		}
		b.logger.Info("auto-login rejected by identity provider")
		return nil, "", ErrTokenRejected
	}

	user, err := b.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			b.logger.Info("auto-login for unregistered phone")
			return nil, "", ErrNotRegistered
		}
		return nil, "", fmt.Errorf("look up user by phone: %w", err)
	}

	if !user.IsActive {
		b.logger.Info("auto-login for deactivated account", slog.String("user_id", user.ID))
		return nil, "", ErrNotRegistered
	}

	token, err := b.authority.Issue(ctx, user)
	if err != nil {
		return nil, "", err
	}

	b.logger.Info("auto-login succeeded", slog.String("user_id", user.ID))
	return user, token, nil
}
