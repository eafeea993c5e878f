package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, oauth_sub, role, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.OAuthSub,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user, generating its id and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = models.NewID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, oauth_sub, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.OAuthSub,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByOAuthSub retrieves a user by OAuth subject identifier
func (r *UserRepository) GetByOAuthSub(ctx context.Context, sub string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE oauth_sub = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, sub))
}

// Update updates a user's mutable fields
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $2, name = $3, password_hash = $4, oauth_sub = $5, role = $6, updated_at = $7
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.OAuthSub,
		user.Role,
		user.UpdatedAt,
	)

	return err
}

// Delete removes a user within the caller's transaction scope (cascades to
// ownerships, reviews, and favorites)
func (r *UserRepository) Delete(ctx context.Context, q Querier, userID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}

// List retrieves a paginated list of users with the total count
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.Name,
			&user.PasswordHash,
			&user.OAuthSub,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	return total, err
}

// GetOrCreateFromOAuth reconciles a Google login against existing accounts:
// match by subject first, then link by email, else create a fresh account.
func (r *UserRepository) GetOrCreateFromOAuth(ctx context.Context, sub, email, name string) (*models.User, error) {
	user, err := r.GetByOAuthSub(ctx, sub)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if user.Email != email || user.Name != name {
			user.Email = email
			user.Name = name
			if err := r.Update(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	// Existing password account with the same email gets the subject linked.
	user, err = r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		user.OAuthSub = &sub
		if err := r.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	newUser := &models.User{
		Email:    email,
		Name:     name,
		OAuthSub: &sub,
		Role:     models.RoleUser,
	}
	if err := r.Create(ctx, newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}
