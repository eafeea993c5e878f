// Package models - favorite.go defines the polymorphic per-user bookmark
// relation. The target is a tagged (entity_type, entity_id) pair; adding a new
// favoritable type is an enum addition plus a lookup entry, no schema change.
package models

import "time"

// EntityType tags the target of a favorite
type EntityType string

const (
	EntityRestaurant EntityType = "restaurant"
	EntityDish       EntityType = "dish"
	EntityEvent      EntityType = "event"
	EntityPlace      EntityType = "place"
	EntityActivity   EntityType = "activity"
)

// FavoritableTypes returns all entity types a user may favorite
func FavoritableTypes() []EntityType {
	return []EntityType{EntityRestaurant, EntityDish, EntityEvent, EntityPlace, EntityActivity}
}

// Valid reports whether t is a known favoritable entity type
func (t EntityType) Valid() bool {
	switch t {
	case EntityRestaurant, EntityDish, EntityEvent, EntityPlace, EntityActivity:
		return true
	}
	return false
}

// Favorite represents a user's bookmark of a directory entity. The target may
// be deleted later; listings tolerate and skip dangling favorites.
type Favorite struct {
	UserID     string     `json:"user_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

// FavoriteWithTarget is a favorite enriched with a display snapshot of its
// target, used in listings. Target is nil when the entity no longer exists.
type FavoriteWithTarget struct {
	Favorite
	TargetName string `json:"target_name,omitempty"`
}
