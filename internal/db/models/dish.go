// Package models - dish.go defines the Dish model. Dishes belong to a
// restaurant; mutation rights are derived from the restaurant's ownership set.
package models

import "time"

// Dish represents a menu item of a restaurant
type Dish struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int       `json:"price_cents"`
	Category     string    `json:"category"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CreatedBy    *string   `json:"created_by"`
	UpdatedBy    *string   `json:"updated_by"`
}
