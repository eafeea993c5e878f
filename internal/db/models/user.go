// Package models - user.go defines the User model for directory accounts with
// email/password or Google OAuth credentials and a global role.
package models

import "time"

// Global roles. Restaurant-scoped roles live on the ownership relation.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account in the system
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash *string   `json:"-"` // nil for OAuth-only accounts
	OAuthSub     *string   `json:"-"` // Google OIDC subject (unique per provider)
	Role         string    `json:"role"` // "admin" or "user"
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user holds the global admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
