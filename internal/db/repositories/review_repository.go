package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

// ReviewRepository handles review database operations
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, restaurant_id, user_id, rating, comment, created_at, updated_at, created_by, updated_by`

func scanReview(row interface{ Scan(dest ...any) error }) (*models.Review, error) {
	review := &models.Review{}
	err := row.Scan(
		&review.ID,
		&review.RestaurantID,
		&review.UserID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.CreatedBy,
		&review.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

// Create inserts a new review, generating its id and timestamps. The unique
// (restaurant_id, user_id) constraint surfaces duplicates to the caller.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	review.ID = models.NewID()
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	query := `
		INSERT INTO reviews (id, restaurant_id, user_id, rating, comment, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		review.ID, review.RestaurantID, review.UserID, review.Rating, review.Comment,
		review.CreatedAt, review.UpdatedAt, review.CreatedBy, review.UpdatedBy,
	)

	return err
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return scanReview(r.db.QueryRowContext(ctx, query, id))
}

// Update updates a review's rating and comment
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	review.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $2, comment = $3, updated_at = $4, updated_by = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		review.ID, review.Rating, review.Comment, review.UpdatedAt, review.UpdatedBy,
	)

	return err
}

// Delete removes a review within the caller's transaction scope
func (r *ReviewRepository) Delete(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return err
}

// ListByRestaurant retrieves a restaurant's reviews newest-first, joined with
// reviewer names, plus the total count
func (r *ReviewRepository) ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]*models.ReviewWithUser, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM reviews WHERE restaurant_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, restaurantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT rv.id, rv.restaurant_id, rv.user_id, rv.rating, rv.comment,
		       rv.created_at, rv.updated_at, rv.created_by, rv.updated_by,
		       COALESCE(u.name, '') AS user_name
		FROM reviews rv
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.restaurant_id = $1
		ORDER BY rv.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reviews := make([]*models.ReviewWithUser, 0)
	for rows.Next() {
		review := &models.ReviewWithUser{}
		err := rows.Scan(
			&review.ID, &review.RestaurantID, &review.UserID, &review.Rating, &review.Comment,
			&review.CreatedAt, &review.UpdatedAt, &review.CreatedBy, &review.UpdatedBy,
			&review.UserName,
		)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}

	return reviews, total, rows.Err()
}

// GetByRestaurantAndUser retrieves the single review a user left on a restaurant
func (r *ReviewRepository) GetByRestaurantAndUser(ctx context.Context, restaurantID, userID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE restaurant_id = $1 AND user_id = $2`
	return scanReview(r.db.QueryRowContext(ctx, query, restaurantID, userID))
}

// ListAllByRestaurant retrieves every review of a restaurant, used when
// archiving the restaurant's dependents in one transaction
func (r *ReviewRepository) ListAllByRestaurant(ctx context.Context, q Querier, restaurantID string) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE restaurant_id = $1 ORDER BY id ASC`

	rows, err := q.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review := &models.Review{}
		err := rows.Scan(
			&review.ID, &review.RestaurantID, &review.UserID, &review.Rating, &review.Comment,
			&review.CreatedAt, &review.UpdatedAt, &review.CreatedBy, &review.UpdatedBy,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

// Count returns the total number of reviews
func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&total)
	return total, err
}
