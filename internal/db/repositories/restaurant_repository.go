package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

// RestaurantRepository handles restaurant database operations
type RestaurantRepository struct {
	db *sql.DB
}

// NewRestaurantRepository creates a new RestaurantRepository
func NewRestaurantRepository(db *sql.DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

const restaurantColumns = `id, name, slug, description, address, municipality, phone, price_range, cuisine, active, created_at, updated_at, created_by, updated_by`

func scanRestaurant(row interface{ Scan(dest ...any) error }) (*models.Restaurant, error) {
	rest := &models.Restaurant{}
	err := row.Scan(
		&rest.ID,
		&rest.Name,
		&rest.Slug,
		&rest.Description,
		&rest.Address,
		&rest.Municipality,
		&rest.Phone,
		&rest.PriceRange,
		&rest.Cuisine,
		&rest.Active,
		&rest.CreatedAt,
		&rest.UpdatedAt,
		&rest.CreatedBy,
		&rest.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rest, nil
}

// Create inserts a new restaurant, generating its id and timestamps
func (r *RestaurantRepository) Create(ctx context.Context, rest *models.Restaurant) error {
	rest.ID = models.NewID()
	now := time.Now().UTC()
	rest.CreatedAt = now
	rest.UpdatedAt = now

	query := `
		INSERT INTO restaurants (id, name, slug, description, address, municipality, phone, price_range, cuisine, active, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		rest.ID, rest.Name, rest.Slug, rest.Description, rest.Address,
		rest.Municipality, rest.Phone, rest.PriceRange, rest.Cuisine, rest.Active,
		rest.CreatedAt, rest.UpdatedAt, rest.CreatedBy, rest.UpdatedBy,
	)

	return err
}

// GetByID retrieves a restaurant by ID
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a restaurant by its URL slug
func (r *RestaurantRepository) GetBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE slug = $1`
	return scanRestaurant(r.db.QueryRowContext(ctx, query, slug))
}

// Update updates a restaurant's mutable fields
func (r *RestaurantRepository) Update(ctx context.Context, rest *models.Restaurant) error {
	rest.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE restaurants
		SET name = $2, slug = $3, description = $4, address = $5, municipality = $6,
		    phone = $7, price_range = $8, cuisine = $9, active = $10, updated_at = $11, updated_by = $12
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		rest.ID, rest.Name, rest.Slug, rest.Description, rest.Address,
		rest.Municipality, rest.Phone, rest.PriceRange, rest.Cuisine, rest.Active,
		rest.UpdatedAt, rest.UpdatedBy,
	)

	return err
}

// Delete removes a restaurant within the caller's transaction scope. The
// caller is responsible for archiving the row (and its dependents) first.
func (r *RestaurantRepository) Delete(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	return err
}

// List retrieves a filtered, paginated list of active restaurants with the
// total matching count. Filters compose with AND; empty filters are skipped.
func (r *RestaurantRepository) List(ctx context.Context, filter models.RestaurantFilter, limit, offset int) ([]*models.Restaurant, int, error) {
	where := []string{"active = TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Municipality != "" {
		where = append(where, "municipality = "+arg(filter.Municipality))
	}
	if filter.Cuisine != "" {
		where = append(where, "cuisine = "+arg(filter.Cuisine))
	}
	if filter.PriceRange > 0 {
		where = append(where, "price_range = "+arg(filter.PriceRange))
	}
	if filter.Query != "" {
		p := arg("%" + filter.Query + "%")
		where = append(where, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM restaurants WHERE ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE ` + whereClause +
		` ORDER BY name ASC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	restaurants := make([]*models.Restaurant, 0)
	for rows.Next() {
		rest := &models.Restaurant{}
		err := rows.Scan(
			&rest.ID, &rest.Name, &rest.Slug, &rest.Description, &rest.Address,
			&rest.Municipality, &rest.Phone, &rest.PriceRange, &rest.Cuisine, &rest.Active,
			&rest.CreatedAt, &rest.UpdatedAt, &rest.CreatedBy, &rest.UpdatedBy,
		)
		if err != nil {
			return nil, 0, err
		}
		restaurants = append(restaurants, rest)
	}

	return restaurants, total, rows.Err()
}

// ListAll retrieves all restaurants regardless of the active flag (admin view)
func (r *RestaurantRepository) ListAll(ctx context.Context, limit, offset int) ([]*models.Restaurant, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + restaurantColumns + `
		FROM restaurants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	restaurants := make([]*models.Restaurant, 0)
	for rows.Next() {
		rest := &models.Restaurant{}
		err := rows.Scan(
			&rest.ID, &rest.Name, &rest.Slug, &rest.Description, &rest.Address,
			&rest.Municipality, &rest.Phone, &rest.PriceRange, &rest.Cuisine, &rest.Active,
			&rest.CreatedAt, &rest.UpdatedAt, &rest.CreatedBy, &rest.UpdatedBy,
		)
		if err != nil {
			return nil, 0, err
		}
		restaurants = append(restaurants, rest)
	}

	return restaurants, total, rows.Err()
}

// ListOwnedBy retrieves the restaurants a user holds any ownership role on
func (r *RestaurantRepository) ListOwnedBy(ctx context.Context, userID string) ([]*models.Restaurant, error) {
	query := `
		SELECT r.id, r.name, r.slug, r.description, r.address, r.municipality, r.phone,
		       r.price_range, r.cuisine, r.active, r.created_at, r.updated_at, r.created_by, r.updated_by
		FROM restaurants r
		JOIN restaurant_owners ro ON ro.restaurant_id = r.id
		WHERE ro.user_id = $1
		ORDER BY r.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	restaurants := make([]*models.Restaurant, 0)
	for rows.Next() {
		rest := &models.Restaurant{}
		err := rows.Scan(
			&rest.ID, &rest.Name, &rest.Slug, &rest.Description, &rest.Address,
			&rest.Municipality, &rest.Phone, &rest.PriceRange, &rest.Cuisine, &rest.Active,
			&rest.CreatedAt, &rest.UpdatedAt, &rest.CreatedBy, &rest.UpdatedBy,
		)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, rest)
	}

	return restaurants, rows.Err()
}

// Count returns the total number of restaurants
func (r *RestaurantRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&total)
	return total, err
}

// Exists reports whether a restaurant with the given id exists
func (r *RestaurantRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM restaurants WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
