package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/temaribet/lms/pkg/errors"

	"github.com/temaribet/lms/internal/domain"
)

// userColumns is the select list shared by every user query. Nullable
// columns are coalesced so scans land in plain strings.
const userColumns = `
	u.id, u.name, COALESCE(u.email, ''), COALESCE(u.phone, ''), u.password_hash,
	COALESCE(u.training_provider_id, ''), u.active_session_id, u.is_active,
	u.created_at, u.updated_at,
	r.id, r.name, r.permissions`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, role_id, training_provider_id, active_session_id, is_active, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		u.PasswordHash,
		u.Role.ID,
		u.TrainingProviderID,
		u.ActiveSessionID,
		u.IsActive,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if u.Email != "" {
				return apperrors.AlreadyExists("user", "email", u.Email)
			}
			return apperrors.AlreadyExists("user", "phone", u.Phone)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByPhone retrieves a user by their phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.phone = $1`

	return r.scanUser(ctx, query, phone)
}

// FindByIdentifier retrieves a user by email or phone, whichever matches.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE lower(u.email) = lower($1) OR u.phone = $1`

	return r.scanUser(ctx, query, identifier)
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET name = $1, email = NULLIF($2, ''), phone = NULLIF($3, ''), password_hash = $4,
		    role_id = $5, training_provider_id = NULLIF($6, ''), is_active = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.db.Exec(ctx, query,
		u.Name,
		u.Email,
		u.Phone,
		u.PasswordHash,
		u.Role.ID,
		u.TrainingProviderID,
		u.IsActive,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// UpdateActiveSessionID replaces the user's active session nonce. Any token
// carrying the previous nonce stops validating immediately.
func (r *UserRepository) UpdateActiveSessionID(ctx context.Context, userID, sessionID string) error {
	query := `
		UPDATE users
		SET active_session_id = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, sessionID, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update active session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}

	return nil
}

// ReadActiveSessionID returns the user's current session nonce.
func (r *UserRepository) ReadActiveSessionID(ctx context.Context, userID string) (string, error) {
	query := `SELECT active_session_id FROM users WHERE id = $1`

	var sessionID string
	err := r.db.QueryRow(ctx, query, userID).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("read active session: %w", err)
	}

	return sessionID, nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.TrainingProviderID,
		&u.ActiveSessionID,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Role.ID,
		&u.Role.Name,
		&u.Role.Permissions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
