// archive_repository.go implements ArchiveRepository over the shared archive
// ledger. Built on sqlx for struct scanning; the snapshot document travels as
// JSONB. Inserts take a Querier because archiving must share the transaction
// that deletes the original row.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

// ArchiveRepository handles archive ledger database operations
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository creates a new ArchiveRepository
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// archiveRow mirrors the archive_records table for sqlx scanning; the JSONB
// snapshot is unmarshalled into the model afterwards.
type archiveRow struct {
	ID            string    `db:"id"`
	OriginalTable string    `db:"original_table"`
	OriginalID    string    `db:"original_id"`
	Data          []byte    `db:"data"`
	DeletedAt     time.Time `db:"deleted_at"`
	DeletedBy     *string   `db:"deleted_by"`
	Note          *string   `db:"note"`
}

func (row *archiveRow) toModel() (*models.ArchiveRecord, error) {
	rec := &models.ArchiveRecord{
		ID:            row.ID,
		OriginalTable: row.OriginalTable,
		OriginalID:    row.OriginalID,
		DeletedAt:     row.DeletedAt,
		DeletedBy:     row.DeletedBy,
		Note:          row.Note,
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &rec.Data); err != nil {
			return nil, fmt.Errorf("failed to decode archive snapshot %s: %w", row.ID, err)
		}
	}
	return rec, nil
}

// Insert persists a new archive record within the caller's transaction scope,
// generating its id. Records are immutable once written.
func (r *ArchiveRepository) Insert(ctx context.Context, q Querier, rec *models.ArchiveRecord) error {
	rec.ID = uuid.New().String()

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to encode archive snapshot: %w", err)
	}

	query := `
		INSERT INTO archive_records (id, original_table, original_id, data, deleted_at, deleted_by, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = q.ExecContext(ctx, query,
		rec.ID, rec.OriginalTable, rec.OriginalID, data, rec.DeletedAt, rec.DeletedBy, rec.Note,
	)

	return err
}

const archiveColumns = `id, original_table, original_id, data, deleted_at, deleted_by, note`

// GetByID retrieves an archive record by its own id
func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*models.ArchiveRecord, error) {
	var row archiveRow
	query := `SELECT ` + archiveColumns + ` FROM archive_records WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// GetByOriginal retrieves the most recent archive record for the given
// original (table, id) pair
func (r *ArchiveRepository) GetByOriginal(ctx context.Context, originalTable, originalID string) (*models.ArchiveRecord, error) {
	var row archiveRow
	query := `
		SELECT ` + archiveColumns + `
		FROM archive_records
		WHERE original_table = $1 AND original_id = $2
		ORDER BY deleted_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &row, query, originalTable, originalID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

// ListByTable retrieves archive records for one source table, most recently
// deleted first, with the total count
func (r *ArchiveRepository) ListByTable(ctx context.Context, originalTable string, limit, offset int) ([]*models.ArchiveRecord, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM archive_records WHERE original_table = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, originalTable); err != nil {
		return nil, 0, err
	}

	var archiveRows []archiveRow
	query := `
		SELECT ` + archiveColumns + `
		FROM archive_records
		WHERE original_table = $1
		ORDER BY deleted_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &archiveRows, query, originalTable, limit, offset); err != nil {
		return nil, 0, err
	}

	records := make([]*models.ArchiveRecord, 0, len(archiveRows))
	for i := range archiveRows {
		rec, err := archiveRows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}

	return records, total, nil
}

// HardDelete permanently removes an archive record and reports whether a row
// was removed. Irreversible.
func (r *ArchiveRepository) HardDelete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM archive_records WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// CountByTable returns the number of archive records per source table
func (r *ArchiveRepository) CountByTable(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT original_table, COUNT(*) FROM archive_records GROUP BY original_table`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var table string
		var n int
		if err := rows.Scan(&table, &n); err != nil {
			return nil, err
		}
		counts[table] = n
	}

	return counts, rows.Err()
}
