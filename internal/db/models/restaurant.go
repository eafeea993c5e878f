// Package models - restaurant.go defines the Restaurant model, the central
// directory entity, with full audit metadata.
package models

import "time"

// Restaurant represents a restaurant listed in the directory
type Restaurant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Address      string    `json:"address"`
	Municipality string    `json:"municipality"`
	Phone        string    `json:"phone"`
	PriceRange   int       `json:"price_range"` // 1 (cheapest) .. 4
	Cuisine      string    `json:"cuisine"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CreatedBy    *string   `json:"created_by"`
	UpdatedBy    *string   `json:"updated_by"`
}

// RestaurantFilter holds the optional filters for public restaurant listings
type RestaurantFilter struct {
	Municipality string
	Cuisine      string
	PriceRange   int    // 0 means any
	Query        string // matches name or description, case-insensitive
}
