package models

import "time"

// Review represents a user's rating of a restaurant. One review per
// (restaurant, user) pair.
type Review struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	UserID       string    `json:"user_id"`
	Rating       int       `json:"rating"` // 1..5
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CreatedBy    *string   `json:"created_by"`
	UpdatedBy    *string   `json:"updated_by"`
}

// ReviewWithUser includes the reviewer's display name for public listings
type ReviewWithUser struct {
	Review
	UserName string `json:"user_name"`
}
