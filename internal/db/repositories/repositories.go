// Package repositories implements the data access layer (repository pattern)
// for the directory backend. Each repository type encapsulates all database
// queries for a domain entity. Handlers never issue SQL directly — all
// database access goes through this layer, which makes query logic testable
// in isolation and prevents accidental cross-domain data access.
//
// Operations that must share a transaction with other writes (archive-then-
// delete, primary-owner handover) take a Querier so the caller passes its
// *sql.Tx explicitly; there is no ambient session state.
package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Querier is the subset of database/sql satisfied by both *sql.DB and
// *sql.Tx. Repository methods that participate in caller-owned transactions
// accept it instead of binding to the pooled handle.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// uniqueViolation is the PostgreSQL error code for duplicate unique keys.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation, used to map inserts onto the AlreadyExists domain error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
