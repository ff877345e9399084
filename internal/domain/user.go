package domain

import (
	"time"
)

// User represents an account in the learning platform. Accounts may be
// password-based (email login) or provisioned through the mini-app bridge
// (phone only, empty password hash).
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	PasswordHash       string    `json:"-"`
	Role               Role      `json:"role"`
	TrainingProviderID string    `json:"training_provider_id,omitempty"`
	ActiveSessionID    string    `json:"-"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can authenticate with credentials.
// Bridge-provisioned accounts have no password and can only enter via the
// external token flow.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
