// Package models - archive.go defines the ArchiveRecord model for the shared
// soft-delete ledger. One table holds snapshots of all entity types; records
// are immutable after creation and removed only by explicit hard delete.
package models

import "time"

// ArchiveRecord is a point-in-time snapshot of a deleted entity
type ArchiveRecord struct {
	ID            string         `json:"id" db:"id"`
	OriginalTable string         `json:"original_table" db:"original_table"`
	OriginalID    string         `json:"original_id" db:"original_id"`
	Data          map[string]any `json:"data" db:"-"` // full field snapshot at deletion time
	DeletedAt     time.Time      `json:"deleted_at" db:"deleted_at"`
	DeletedBy     *string        `json:"deleted_by" db:"deleted_by"`
	Note          *string        `json:"note" db:"note"`
}

// Archivable table names. The archive ledger stores the source table name so
// restore can dispatch back to the right restorer. Users are not listed: user
// deletion is a hard delete and never reaches the ledger.
const (
	TableRestaurants = "restaurants"
	TableDishes      = "dishes"
	TableReviews     = "reviews"
)
