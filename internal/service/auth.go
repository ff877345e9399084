package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/temaribet/lms/pkg/errors"

	"github.com/temaribet/lms/internal/auth"
	"github.com/temaribet/lms/internal/domain"
	"github.com/temaribet/lms/internal/event"
	"github.com/temaribet/lms/internal/repository"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// Login methods recorded on logged-in events.
const (
	MethodPassword = "password"
	MethodMiniApp  = "miniapp"
)

// AuthService implements registration, credential login, and logout on top
// of the session authority.
type AuthService struct {
	users     repository.UserRepository
	roles     repository.RoleRepository
	authority *auth.Authority
	lockout   *Lockout
	producer  *event.Producer
	logger    *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	authority *auth.Authority,
	lockout *Lockout,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		roles:     roles,
		authority: authority,
		lockout:   lockout,
		producer:  producer,
		logger:    logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
// TrainingProviderID is optional; when set, the phone uniqueness scope
// narrows to that provider.
type RegisterInput struct {
	Name               string
	Email              string
	Phone              string
	Password           string
	TrainingProviderID string
}

// LoginInput holds the parameters for credential login. Identifier accepts
// an email address or a phone number.
type LoginInput struct {
	Identifier string
	Password   string
}

// Register creates a new account with the default staff role, hashes the
// password, and issues its first session.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	if input.Name == "" {
		return nil, "", apperrors.InvalidInput("name is required")
	}
	if input.Email == "" && input.Phone == "" {
		return nil, "", apperrors.InvalidInput("email or phone is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}

	role, err := s.roles.GetByName(ctx, domain.RoleStaff)
	if err != nil {
		return nil, "", fmt.Errorf("resolve default role: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:                 uuid.New().String(),
		Name:               input.Name,
		Email:              input.Email,
		Phone:              input.Phone,
		TrainingProviderID: input.TrainingProviderID,
		PasswordHash:       string(hashedPassword),
		Role:               *role,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.authority.Issue(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role.Name),
	)

	return user, token, nil
}

// Login authenticates with an identifier and password and issues a new
// session, revoking any earlier one. Every failure path returns the same
// message; which step failed is not observable from outside.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if input.Identifier == "" {
		return nil, "", apperrors.InvalidInput("identifier is required")
	}
	if input.Password == "" {
		return nil, "", apperrors.InvalidInput("password is required")
	}

	if s.lockout.Locked(ctx, input.Identifier) {
		return nil, "", apperrors.Unauthorized("invalid credentials")
	}

	user, err := s.users.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		s.lockout.RecordFailure(ctx, input.Identifier)
		return nil, "", apperrors.Unauthorized("invalid credentials")
	}

	if !user.IsActive || !user.HasPassword() {
		s.lockout.RecordFailure(ctx, input.Identifier)
		return nil, "", apperrors.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.lockout.RecordFailure(ctx, input.Identifier)
		return nil, "", apperrors.Unauthorized("invalid credentials")
	}

	token, err := s.authority.Issue(ctx, user)
	if err != nil {
		return nil, "", fmt.Errorf("issue session: %w", err)
	}

	s.lockout.Reset(ctx, input.Identifier)

	if err := s.producer.PublishUserLoggedIn(ctx, user, MethodPassword); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_in event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role.Name),
	)

	return user, token, nil
}

// Logout revokes the user's active session. The presented token keeps its
// valid signature but can never validate again.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.authority.Revoke(ctx, userID); err != nil {
		return err
	}

	if err := s.producer.PublishSessionRevoked(ctx, userID, "logout"); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.revoked event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Profile returns the account behind a validated session.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// validatePassword enforces the password policy.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
