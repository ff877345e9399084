// Package repository defines the persistence interfaces the service layer
// depends on.
package repository

import (
	"context"

	"github.com/temaribet/lms/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByPhone retrieves a user by their phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)

	// FindByIdentifier retrieves a user by email or phone number,
	// whichever matches. Login forms accept either.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// UpdateActiveSessionID replaces the user's active session nonce.
	UpdateActiveSessionID(ctx context.Context, userID, sessionID string) error

	// ReadActiveSessionID returns the user's current session nonce, or
	// empty string when no session was ever issued.
	ReadActiveSessionID(ctx context.Context, userID string) (string, error)
}

// RoleRepository defines the interface for role lookups.
type RoleRepository interface {
	// GetByName retrieves a role by its unique name.
	GetByName(ctx context.Context, name string) (*domain.Role, error)

	// List returns all roles.
	List(ctx context.Context) ([]domain.Role, error)
}
