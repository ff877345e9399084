package domain

import "time"

// Canonical role names. Role names are free-form in storage; these three
// drive routing decisions and everything else falls through to the admin
// landing page.
const (
	RoleStaff      = "staff"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super admin"
)

// Role is a named permission set assigned to a user.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasPermission reports whether the role grants the given permission.
// A literal "*" entry grants everything.
func (r *Role) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}
