package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

// OwnershipRepository handles the restaurant_owners join table. Mutations
// that uphold the single-primary invariant take a Querier so the ownership
// service can run them under one transaction.
type OwnershipRepository struct {
	db *sql.DB
}

// NewOwnershipRepository creates a new OwnershipRepository
func NewOwnershipRepository(db *sql.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

const ownershipColumns = `restaurant_id, user_id, role, is_primary, created_at, updated_at`

func scanOwnership(row interface{ Scan(dest ...any) error }) (*models.Ownership, error) {
	o := &models.Ownership{}
	err := row.Scan(
		&o.RestaurantID,
		&o.UserID,
		&o.Role,
		&o.IsPrimary,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetByPair retrieves the ownership relation for a (restaurant, user) pair
func (r *OwnershipRepository) GetByPair(ctx context.Context, q Querier, restaurantID, userID string) (*models.Ownership, error) {
	query := `SELECT ` + ownershipColumns + ` FROM restaurant_owners WHERE restaurant_id = $1 AND user_id = $2`
	return scanOwnership(q.QueryRowContext(ctx, query, restaurantID, userID))
}

// GetPrimary retrieves the primary owner relation of a restaurant, if any
func (r *OwnershipRepository) GetPrimary(ctx context.Context, q Querier, restaurantID string) (*models.Ownership, error) {
	query := `SELECT ` + ownershipColumns + ` FROM restaurant_owners WHERE restaurant_id = $1 AND is_primary`
	return scanOwnership(q.QueryRowContext(ctx, query, restaurantID))
}

// Insert creates a new ownership relation
func (r *OwnershipRepository) Insert(ctx context.Context, q Querier, o *models.Ownership) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	query := `
		INSERT INTO restaurant_owners (restaurant_id, user_id, role, is_primary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.ExecContext(ctx, query,
		o.RestaurantID, o.UserID, o.Role, o.IsPrimary, o.CreatedAt, o.UpdatedAt,
	)

	return err
}

// UpdateRole changes the role of an existing relation and reports whether a
// row was affected
func (r *OwnershipRepository) UpdateRole(ctx context.Context, q Querier, restaurantID, userID string, role models.OwnershipRole) (bool, error) {
	query := `
		UPDATE restaurant_owners
		SET role = $3, updated_at = $4
		WHERE restaurant_id = $1 AND user_id = $2
	`

	res, err := q.ExecContext(ctx, query, restaurantID, userID, role, time.Now().UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// SetPrimary flips the is_primary flag on one relation
func (r *OwnershipRepository) SetPrimary(ctx context.Context, q Querier, restaurantID, userID string, primary bool) error {
	query := `
		UPDATE restaurant_owners
		SET is_primary = $3, updated_at = $4
		WHERE restaurant_id = $1 AND user_id = $2
	`

	_, err := q.ExecContext(ctx, query, restaurantID, userID, primary, time.Now().UTC())
	return err
}

// Delete removes an ownership relation and reports whether a row was removed
func (r *OwnershipRepository) Delete(ctx context.Context, restaurantID, userID string) (bool, error) {
	query := `DELETE FROM restaurant_owners WHERE restaurant_id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, restaurantID, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// ListByRestaurant retrieves a restaurant's ownership set joined with user
// details, primary owner first
func (r *OwnershipRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]*models.OwnershipWithUser, error) {
	query := `
		SELECT ro.restaurant_id, ro.user_id, ro.role, ro.is_primary, ro.created_at, ro.updated_at,
		       COALESCE(u.name, '') AS user_name, COALESCE(u.email, '') AS user_email
		FROM restaurant_owners ro
		LEFT JOIN users u ON u.id = ro.user_id
		WHERE ro.restaurant_id = $1
		ORDER BY ro.is_primary DESC, ro.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make([]*models.OwnershipWithUser, 0)
	for rows.Next() {
		o := &models.OwnershipWithUser{}
		err := rows.Scan(
			&o.RestaurantID, &o.UserID, &o.Role, &o.IsPrimary, &o.CreatedAt, &o.UpdatedAt,
			&o.UserName, &o.UserEmail,
		)
		if err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}

	return owners, rows.Err()
}
