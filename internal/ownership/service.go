// Package ownership manages restaurant-scoped roles: who may touch a
// restaurant and with what authority. It enforces the single-primary-owner
// invariant transactionally and answers the authorization checks the API
// middleware asks on every owner-scoped request.
package ownership

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
)

// Service coordinates ownership mutations and authorization checks
type Service struct {
	db          *sql.DB
	ownerships  *repositories.OwnershipRepository
	restaurants *repositories.RestaurantRepository
	dishes      *repositories.DishRepository
	users       *repositories.UserRepository
}

// NewService creates the ownership service
func NewService(
	db *sql.DB,
	ownerships *repositories.OwnershipRepository,
	restaurants *repositories.RestaurantRepository,
	dishes *repositories.DishRepository,
	users *repositories.UserRepository,
) *Service {
	return &Service{
		db:          db,
		ownerships:  ownerships,
		restaurants: restaurants,
		dishes:      dishes,
		users:       users,
	}
}

// AssignOwner grants a user a role on a restaurant. When isPrimary is set,
// any existing primary owner is demoted in the same transaction so the
// restaurant never has two primaries.
func (s *Service) AssignOwner(ctx context.Context, restaurantID, userID string, role models.OwnershipRole, isPrimary bool) (*models.Ownership, error) {
	if !role.Valid() {
		return nil, domain.Validation("invalid_role", "unknown ownership role").With("role", string(role))
	}

	exists, err := s.restaurants.Exists(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("restaurant_not_found", "restaurant not found").With("restaurant_id", restaurantID)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("user_not_found", "user not found").With("user_id", userID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ownership transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := s.ownerships.GetByPair(ctx, tx, restaurantID, userID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, domain.AlreadyExists("ownership_exists", "the user already holds a role on this restaurant").
			With("restaurant_id", restaurantID).
			With("user_id", userID)
	}

	if isPrimary {
		primary, err := s.ownerships.GetPrimary(ctx, tx, restaurantID)
		if err != nil {
			return nil, err
		}
		if primary != nil {
			if err := s.ownerships.SetPrimary(ctx, tx, restaurantID, primary.UserID, false); err != nil {
				return nil, err
			}
		}
	}

	o := &models.Ownership{
		RestaurantID: restaurantID,
		UserID:       userID,
		Role:         role,
		IsPrimary:    isPrimary,
	}
	if err := s.ownerships.Insert(ctx, tx, o); err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, domain.AlreadyExists("ownership_exists", "the user already holds a role on this restaurant").
				With("restaurant_id", restaurantID).
				With("user_id", userID)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ownership assignment: %w", err)
	}
	return o, nil
}

// UpdateRole changes an existing owner's role without touching the primary flag
func (s *Service) UpdateRole(ctx context.Context, restaurantID, userID string, role models.OwnershipRole) (*models.Ownership, error) {
	if !role.Valid() {
		return nil, domain.Validation("invalid_role", "unknown ownership role").With("role", string(role))
	}

	updated, err := s.ownerships.UpdateRole(ctx, s.db, restaurantID, userID, role)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.NotFound("ownership_not_found", "the user holds no role on this restaurant").
			With("restaurant_id", restaurantID).
			With("user_id", userID)
	}

	return s.ownerships.GetByPair(ctx, s.db, restaurantID, userID)
}

// TransferPrimary moves the primary flag from one owner to another,
// atomically, and returns both updated relations (demoted source first).
// Both users must already hold a role on the restaurant, and the source must
// currently be the primary.
func (s *Service) TransferPrimary(ctx context.Context, restaurantID, fromUserID, toUserID string) (*models.Ownership, *models.Ownership, error) {
	if fromUserID == toUserID {
		return nil, nil, domain.Validation("same_user", "cannot transfer the primary flag to the same user")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transfer transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	from, err := s.ownerships.GetByPair(ctx, tx, restaurantID, fromUserID)
	if err != nil {
		return nil, nil, err
	}
	if from == nil {
		return nil, nil, domain.NotFound("ownership_not_found", "the source user holds no role on this restaurant").
			With("user_id", fromUserID)
	}
	if !from.IsPrimary {
		return nil, nil, domain.Forbidden("not_primary", "the source user is not the primary owner").
			With("user_id", fromUserID)
	}

	to, err := s.ownerships.GetByPair(ctx, tx, restaurantID, toUserID)
	if err != nil {
		return nil, nil, err
	}
	if to == nil {
		return nil, nil, domain.NotFound("ownership_not_found", "the target user holds no role on this restaurant").
			With("user_id", toUserID)
	}

	// Demote first; the partial unique index forbids two primaries at once.
	if err := s.ownerships.SetPrimary(ctx, tx, restaurantID, fromUserID, false); err != nil {
		return nil, nil, err
	}
	if err := s.ownerships.SetPrimary(ctx, tx, restaurantID, toUserID, true); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit primary transfer: %w", err)
	}

	from.IsPrimary = false
	to.IsPrimary = true
	return from, to, nil
}

// RemoveOwner revokes a user's role on a restaurant. Removing a relation that
// does not exist reports NotFound; removing the primary owner is allowed and
// leaves the restaurant without a primary until one is assigned.
func (s *Service) RemoveOwner(ctx context.Context, restaurantID, userID string) error {
	removed, err := s.ownerships.Delete(ctx, restaurantID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.NotFound("ownership_not_found", "the user holds no role on this restaurant").
			With("restaurant_id", restaurantID).
			With("user_id", userID)
	}
	return nil
}

// ListOwners returns a restaurant's ownership set, primary owner first
func (s *Service) ListOwners(ctx context.Context, restaurantID string) ([]*models.OwnershipWithUser, error) {
	exists, err := s.restaurants.Exists(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("restaurant_not_found", "restaurant not found").With("restaurant_id", restaurantID)
	}
	return s.ownerships.ListByRestaurant(ctx, restaurantID)
}

// Authorize reports whether a user may act on a restaurant with at least the
// given scoped role. Global admins pass every check. A missing restaurant and
// a missing role both come back as Forbidden so callers cannot probe which
// restaurant ids exist.
func (s *Service) Authorize(ctx context.Context, user *models.User, restaurantID string, min models.OwnershipRole) error {
	if user == nil {
		return domain.Unauthorized("unauthenticated", "authentication required")
	}
	if user.Role == models.RoleAdmin {
		return nil
	}

	o, err := s.ownerships.GetByPair(ctx, s.db, restaurantID, user.ID)
	if err != nil {
		return err
	}
	if o == nil || !o.Role.AtLeast(min) {
		return domain.Forbidden("insufficient_role", "you do not have the required role on this restaurant").
			With("restaurant_id", restaurantID)
	}
	return nil
}

// AuthorizeDish resolves a dish to its restaurant and runs Authorize against
// it. The restaurant id is returned so handlers can reuse it.
func (s *Service) AuthorizeDish(ctx context.Context, user *models.User, dishID string, min models.OwnershipRole) (string, error) {
	dish, err := s.dishes.GetByID(ctx, dishID)
	if err != nil {
		return "", err
	}
	if dish == nil {
		return "", domain.NotFound("dish_not_found", "dish not found").With("dish_id", dishID)
	}
	if err := s.Authorize(ctx, user, dish.RestaurantID, min); err != nil {
		return "", err
	}
	return dish.RestaurantID, nil
}
