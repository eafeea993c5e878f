// Package models defines the database entities for the Descubre Boyacá
// directory. Audited entities share the id/created/updated/actor field shape;
// identifiers are ULIDs so primary keys sort by creation time.
package models

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID generates a 26-character, lexicographically sortable, time-ordered
// unique identifier for audited entities.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

// IsValidID reports whether s parses as a ULID.
func IsValidID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
