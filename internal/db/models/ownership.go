// Package models - ownership.go defines the user-to-restaurant ownership
// relation with a scoped role and the single-primary-owner flag, plus the role
// ordering used by authorization checks.
package models

import "time"

// OwnershipRole is a restaurant-scoped role
type OwnershipRole string

const (
	OwnershipStaff   OwnershipRole = "staff"
	OwnershipManager OwnershipRole = "manager"
	OwnershipOwner   OwnershipRole = "owner"
)

// ownershipRank orders roles: staff < manager < owner
var ownershipRank = map[OwnershipRole]int{
	OwnershipStaff:   1,
	OwnershipManager: 2,
	OwnershipOwner:   3,
}

// Valid reports whether r is a known ownership role
func (r OwnershipRole) Valid() bool {
	_, ok := ownershipRank[r]
	return ok
}

// AtLeast reports whether r grants everything min grants. Unknown roles rank
// below staff.
func (r OwnershipRole) AtLeast(min OwnershipRole) bool {
	return ownershipRank[r] >= ownershipRank[min]
}

// Ownership links a user to a restaurant. At most one row per
// (restaurant, user) pair; at most one row with IsPrimary per restaurant.
type Ownership struct {
	RestaurantID string        `json:"restaurant_id"`
	UserID       string        `json:"user_id"`
	Role         OwnershipRole `json:"role"`
	IsPrimary    bool          `json:"is_primary"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// OwnershipWithUser includes user details for admin listings
type OwnershipWithUser struct {
	Ownership
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
