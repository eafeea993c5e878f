// Package archive implements the soft-delete ledger: every entity deletion
// snapshots the full record into the shared archive table inside the same
// transaction that removes the original row, so a deletion without an archive
// record (or the reverse) can never be observed. Restore re-inserts the
// snapshot into its source table through a per-table restorer registry;
// hard delete is the only way an archive record ever disappears.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
	"github.com/descubre-boyaca/descubre-backend/internal/telemetry"
)

// Service coordinates archiving, restoring, and hard-deleting snapshots.
// Transaction scopes are explicit: ArchiveEntity runs inside the caller's
// transaction, and the SoftDelete helpers own exactly one transaction each.
type Service struct {
	db          *sql.DB
	archives    *repositories.ArchiveRepository
	restaurants *repositories.RestaurantRepository
	dishes      *repositories.DishRepository
	reviews     *repositories.ReviewRepository

	restorers map[string]restorer
}

// restorer re-inserts an archived snapshot into its source table within the
// given transaction scope, returning the reconstructed entity.
type restorer func(ctx context.Context, q repositories.Querier, data map[string]any) (any, error)

// NewService creates the archive service and registers the restorers for all
// archivable tables.
func NewService(
	db *sql.DB,
	archives *repositories.ArchiveRepository,
	restaurants *repositories.RestaurantRepository,
	dishes *repositories.DishRepository,
	reviews *repositories.ReviewRepository,
) *Service {
	s := &Service{
		db:          db,
		archives:    archives,
		restaurants: restaurants,
		dishes:      dishes,
		reviews:     reviews,
	}
	s.restorers = map[string]restorer{
		models.TableRestaurants: s.restoreRestaurant,
		models.TableDishes:      s.restoreDish,
		models.TableReviews:     s.restoreReview,
	}
	return s
}

// Snapshot converts an entity into the key-value document stored in the
// archive ledger. The entity's json tags define the document keys, so a
// restore of a re-archived record reproduces the original document.
func Snapshot(entity any) (map[string]any, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize entity snapshot: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to build snapshot document: %w", err)
	}
	return data, nil
}

// ArchiveEntity snapshots an entity into the ledger within the caller's
// transaction scope. The caller must delete the original row in the same
// transaction; a failure here aborts the whole deletion.
func (s *Service) ArchiveEntity(ctx context.Context, q repositories.Querier, originalTable string, entity any, note, actorID *string) (*models.ArchiveRecord, error) {
	data, err := Snapshot(entity)
	if err != nil {
		return nil, err
	}

	originalID, _ := data["id"].(string)
	if originalID == "" {
		return nil, domain.Validation("snapshot_missing_id", "entity snapshot carries no id field")
	}

	rec := &models.ArchiveRecord{
		OriginalTable: originalTable,
		OriginalID:    originalID,
		Data:          data,
		DeletedAt:     time.Now().UTC(),
		DeletedBy:     actorID,
		Note:          note,
	}

	if err := s.archives.Insert(ctx, q, rec); err != nil {
		return nil, fmt.Errorf("failed to write archive record for %s/%s: %w", originalTable, originalID, err)
	}

	telemetry.ArchivedEntities.WithLabelValues(originalTable).Inc()
	return rec, nil
}

// GetByOriginal retrieves the latest archive record of a deleted entity
func (s *Service) GetByOriginal(ctx context.Context, originalTable, originalID string) (*models.ArchiveRecord, error) {
	return s.archives.GetByOriginal(ctx, originalTable, originalID)
}

// ListByTable retrieves archive records for one source table, most recently
// deleted first
func (s *Service) ListByTable(ctx context.Context, originalTable string, limit, offset int) ([]*models.ArchiveRecord, int, error) {
	return s.archives.ListByTable(ctx, originalTable, limit, offset)
}

// HardDelete permanently removes an archive record. Calling it on a missing
// id reports NotFound rather than erroring, so repeated calls are safe.
func (s *Service) HardDelete(ctx context.Context, archiveID string) error {
	removed, err := s.archives.HardDelete(ctx, archiveID)
	if err != nil {
		return fmt.Errorf("failed to hard-delete archive record %s: %w", archiveID, err)
	}
	if !removed {
		return domain.NotFound("archive_not_found", "archive record not found").With("archive_id", archiveID)
	}
	return nil
}

// Restore re-inserts an archived entity into its original table with its
// original id and field values and a fresh updated_at. It fails with
// AlreadyExists when the id has been reused since archiving, and leaves the
// archive record in place either way.
func (s *Service) Restore(ctx context.Context, archiveID string) (any, error) {
	rec, err := s.archives.GetByID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.NotFound("archive_not_found", "archive record not found").With("archive_id", archiveID)
	}

	restore, ok := s.restorers[rec.OriginalTable]
	if !ok {
		return nil, domain.Validation("unknown_archive_table", "no restorer for table").With("original_table", rec.OriginalTable)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin restore transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	entity, err := restore(ctx, tx, rec.Data)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit restore: %w", err)
	}

	telemetry.RestoredEntities.WithLabelValues(rec.OriginalTable).Inc()
	return entity, nil
}

// decodeSnapshot rebuilds a typed entity from the archive document
func decodeSnapshot(data map[string]any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to re-encode snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return nil
}

func existsInTable(ctx context.Context, q repositories.Querier, table, id string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (s *Service) restoreRestaurant(ctx context.Context, q repositories.Querier, data map[string]any) (any, error) {
	var rest models.Restaurant
	if err := decodeSnapshot(data, &rest); err != nil {
		return nil, err
	}

	taken, err := existsInTable(ctx, q, models.TableRestaurants, rest.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.AlreadyExists("restaurant_exists", "a restaurant with the archived id already exists").With("restaurant_id", rest.ID)
	}

	rest.UpdatedAt = time.Now().UTC()
	if rest.UpdatedAt.Before(rest.CreatedAt) {
		rest.CreatedAt = rest.UpdatedAt
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO restaurants (id, name, slug, description, address, municipality, phone, price_range, cuisine, active, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rest.ID, rest.Name, rest.Slug, rest.Description, rest.Address,
		rest.Municipality, rest.Phone, rest.PriceRange, rest.Cuisine, rest.Active,
		rest.CreatedAt, rest.UpdatedAt, rest.CreatedBy, rest.UpdatedBy,
	)
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, domain.AlreadyExists("restaurant_exists", "a restaurant with the archived slug or id already exists").With("restaurant_id", rest.ID)
		}
		return nil, err
	}
	return &rest, nil
}

func (s *Service) restoreDish(ctx context.Context, q repositories.Querier, data map[string]any) (any, error) {
	var dish models.Dish
	if err := decodeSnapshot(data, &dish); err != nil {
		return nil, err
	}

	taken, err := existsInTable(ctx, q, models.TableDishes, dish.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.AlreadyExists("dish_exists", "a dish with the archived id already exists").With("dish_id", dish.ID)
	}

	// The parent restaurant must still exist; a dish cannot be restored into
	// a deleted restaurant.
	parent, err := existsInTable(ctx, q, models.TableRestaurants, dish.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !parent {
		return nil, domain.New("restaurant_missing", "the dish's restaurant no longer exists").With("restaurant_id", dish.RestaurantID)
	}

	dish.UpdatedAt = time.Now().UTC()
	if dish.UpdatedAt.Before(dish.CreatedAt) {
		dish.CreatedAt = dish.UpdatedAt
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO dishes (id, restaurant_id, name, description, price_cents, category, available, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		dish.ID, dish.RestaurantID, dish.Name, dish.Description, dish.PriceCents,
		dish.Category, dish.Available, dish.CreatedAt, dish.UpdatedAt,
		dish.CreatedBy, dish.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &dish, nil
}

func (s *Service) restoreReview(ctx context.Context, q repositories.Querier, data map[string]any) (any, error) {
	var review models.Review
	if err := decodeSnapshot(data, &review); err != nil {
		return nil, err
	}

	taken, err := existsInTable(ctx, q, models.TableReviews, review.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.AlreadyExists("review_exists", "a review with the archived id already exists").With("review_id", review.ID)
	}

	parent, err := existsInTable(ctx, q, models.TableRestaurants, review.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !parent {
		return nil, domain.New("restaurant_missing", "the review's restaurant no longer exists").With("restaurant_id", review.RestaurantID)
	}

	review.UpdatedAt = time.Now().UTC()
	if review.UpdatedAt.Before(review.CreatedAt) {
		review.CreatedAt = review.UpdatedAt
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO reviews (id, restaurant_id, user_id, rating, comment, created_at, updated_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		review.ID, review.RestaurantID, review.UserID, review.Rating, review.Comment,
		review.CreatedAt, review.UpdatedAt, review.CreatedBy, review.UpdatedBy,
	)
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, domain.AlreadyExists("review_exists", "the user has already reviewed this restaurant again").With("review_id", review.ID)
		}
		return nil, err
	}
	return &review, nil
}

// SoftDeleteRestaurant archives and deletes a restaurant together with its
// dishes and reviews, all in one transaction. Each dependent gets its own
// archive record so it can be inspected or restored individually.
func (s *Service) SoftDeleteRestaurant(ctx context.Context, restaurantID string, note, actorID *string) (*models.ArchiveRecord, error) {
	rest, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, domain.NotFound("restaurant_not_found", "restaurant not found").With("restaurant_id", restaurantID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	dishes, err := s.dishes.ListAllByRestaurant(ctx, tx, restaurantID)
	if err != nil {
		return nil, err
	}
	for _, dish := range dishes {
		if _, err := s.ArchiveEntity(ctx, tx, models.TableDishes, dish, note, actorID); err != nil {
			return nil, err
		}
		if err := s.dishes.Delete(ctx, tx, dish.ID); err != nil {
			return nil, err
		}
	}

	reviews, err := s.reviews.ListAllByRestaurant(ctx, tx, restaurantID)
	if err != nil {
		return nil, err
	}
	for _, review := range reviews {
		if _, err := s.ArchiveEntity(ctx, tx, models.TableReviews, review, note, actorID); err != nil {
			return nil, err
		}
		if err := s.reviews.Delete(ctx, tx, review.ID); err != nil {
			return nil, err
		}
	}

	rec, err := s.ArchiveEntity(ctx, tx, models.TableRestaurants, rest, note, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.restaurants.Delete(ctx, tx, restaurantID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return rec, nil
}

// SoftDeleteDish archives and deletes one dish in a single transaction
func (s *Service) SoftDeleteDish(ctx context.Context, dishID string, note, actorID *string) (*models.ArchiveRecord, error) {
	dish, err := s.dishes.GetByID(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if dish == nil {
		return nil, domain.NotFound("dish_not_found", "dish not found").With("dish_id", dishID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rec, err := s.ArchiveEntity(ctx, tx, models.TableDishes, dish, note, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.dishes.Delete(ctx, tx, dishID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return rec, nil
}

// SoftDeleteReview archives and deletes one review in a single transaction
func (s *Service) SoftDeleteReview(ctx context.Context, reviewID string, note, actorID *string) (*models.ArchiveRecord, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, domain.NotFound("review_not_found", "review not found").With("review_id", reviewID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rec, err := s.ArchiveEntity(ctx, tx, models.TableReviews, review, note, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Delete(ctx, tx, reviewID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return rec, nil
}
