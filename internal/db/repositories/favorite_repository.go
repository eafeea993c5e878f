package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

// FavoriteRepository handles the polymorphic favorites table. The target
// (entity_type, entity_id) pair is validated by the handler through the
// entity lookup dispatch table, not by a database constraint.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create inserts a favorite. A duplicate (user, type, id) tuple surfaces as
// a unique violation for the caller to map to AlreadyExists.
func (r *FavoriteRepository) Create(ctx context.Context, fav *models.Favorite) error {
	fav.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO favorites (user_id, entity_type, entity_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, fav.UserID, fav.EntityType, fav.EntityID, fav.CreatedAt)
	return err
}

// Delete removes a favorite and reports whether a row was removed
func (r *FavoriteRepository) Delete(ctx context.Context, userID string, entityType models.EntityType, entityID string) (bool, error) {
	query := `DELETE FROM favorites WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3`

	res, err := r.db.ExecContext(ctx, query, userID, entityType, entityID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// Exists reports whether a user has favorited the given entity
func (r *FavoriteRepository) Exists(ctx context.Context, userID string, entityType models.EntityType, entityID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, entityType, entityID).Scan(&exists)
	return exists, err
}

// ListByUser retrieves a user's favorites newest-first, plus the total
// recorded count. Dangling targets are the caller's concern: the rows are
// returned as stored and the enrichment step decides what to surface.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Favorite, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM favorites WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT user_id, entity_type, entity_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	favorites := make([]*models.Favorite, 0)
	for rows.Next() {
		fav := &models.Favorite{}
		if err := rows.Scan(&fav.UserID, &fav.EntityType, &fav.EntityID, &fav.CreatedAt); err != nil {
			return nil, 0, err
		}
		favorites = append(favorites, fav)
	}

	return favorites, total, rows.Err()
}

// Count returns the total number of favorite rows
func (r *FavoriteRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorites`).Scan(&total)
	return total, err
}
