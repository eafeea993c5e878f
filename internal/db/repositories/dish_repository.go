package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

// DishRepository handles dish database operations
type DishRepository struct {
	db *sql.DB
}

// NewDishRepository creates a new DishRepository
func NewDishRepository(db *sql.DB) *DishRepository {
	return &DishRepository{db: db}
}

const dishColumns = `id, restaurant_id, name, description, price_cents, category, available, created_at, updated_at, created_by, updated_by`

func scanDish(row interface{ Scan(dest ...any) error }) (*models.Dish, error) {
	dish := &models.Dish{}
	err := row.Scan(
		&dish.ID,
		&dish.RestaurantID,
		&dish.Name,
		&dish.Description,
		&dish.PriceCents,
		&dish.Category,
		&dish.Available,
		&dish.CreatedAt,
		&dish.UpdatedAt,
		&dish.CreatedBy,
		&dish.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dish, nil
}

// Create inserts a new dish, generating its id and timestamps
func (r *DishRepository) Create(ctx context.Context, dish *models.Dish) error {
	dish.ID = models.NewID()
	now := time.Now().UTC()
	dish.CreatedAt = now
	dish.UpdatedAt = now

	query := `
		INSERT INTO dishes (id, restaurant_id, name, description, price_cents, category, available, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		dish.ID, dish.RestaurantID, dish.Name, dish.Description, dish.PriceCents,
		dish.Category, dish.Available, dish.CreatedAt, dish.UpdatedAt,
		dish.CreatedBy, dish.UpdatedBy,
	)

	return err
}

// GetByID retrieves a dish by ID
func (r *DishRepository) GetByID(ctx context.Context, id string) (*models.Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes WHERE id = $1`
	return scanDish(r.db.QueryRowContext(ctx, query, id))
}

// Update updates a dish's mutable fields
func (r *DishRepository) Update(ctx context.Context, dish *models.Dish) error {
	dish.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE dishes
		SET name = $2, description = $3, price_cents = $4, category = $5, available = $6,
		    updated_at = $7, updated_by = $8
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		dish.ID, dish.Name, dish.Description, dish.PriceCents, dish.Category,
		dish.Available, dish.UpdatedAt, dish.UpdatedBy,
	)

	return err
}

// Delete removes a dish within the caller's transaction scope
func (r *DishRepository) Delete(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM dishes WHERE id = $1`, id)
	return err
}

// ListByRestaurant retrieves a restaurant's dishes with the total count
func (r *DishRepository) ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]*models.Dish, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM dishes WHERE restaurant_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, restaurantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + dishColumns + `
		FROM dishes
		WHERE restaurant_id = $1
		ORDER BY category ASC, name ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	dishes := make([]*models.Dish, 0)
	for rows.Next() {
		dish := &models.Dish{}
		err := rows.Scan(
			&dish.ID, &dish.RestaurantID, &dish.Name, &dish.Description, &dish.PriceCents,
			&dish.Category, &dish.Available, &dish.CreatedAt, &dish.UpdatedAt,
			&dish.CreatedBy, &dish.UpdatedBy,
		)
		if err != nil {
			return nil, 0, err
		}
		dishes = append(dishes, dish)
	}

	return dishes, total, rows.Err()
}

// ListAllByRestaurant retrieves every dish of a restaurant, used when
// archiving the restaurant's dependents in one transaction
func (r *DishRepository) ListAllByRestaurant(ctx context.Context, q Querier, restaurantID string) ([]*models.Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes WHERE restaurant_id = $1 ORDER BY id ASC`

	rows, err := q.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dishes := make([]*models.Dish, 0)
	for rows.Next() {
		dish := &models.Dish{}
		err := rows.Scan(
			&dish.ID, &dish.RestaurantID, &dish.Name, &dish.Description, &dish.PriceCents,
			&dish.Category, &dish.Available, &dish.CreatedAt, &dish.UpdatedAt,
			&dish.CreatedBy, &dish.UpdatedBy,
		)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, dish)
	}

	return dishes, rows.Err()
}

// Count returns the total number of dishes
func (r *DishRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dishes`).Scan(&total)
	return total, err
}

// Exists reports whether a dish with the given id exists
func (r *DishRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM dishes WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
