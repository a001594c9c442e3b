package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
)

// Ensure UserRepo implements UserRepository
var _ repositories.UserRepository = (*UserRepo)(nil)

// UserRepo implements UserRepository using PostgreSQL
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID retrieves a user profile by its identifier
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	query := `
		SELECT id, username, display_name, avatar_url, created_at
		FROM users
		WHERE id = $1
	`

	var user entities.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Search finds profiles whose username matches the given prefix
func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]entities.User, error) {
	stmt := `
		SELECT id, username, display_name, avatar_url, created_at
		FROM users
		WHERE username ILIKE $1 || '%'
		ORDER BY username
		LIMIT $2
	`

	var users []entities.User
	if err := r.db.SelectContext(ctx, &users, stmt, query, limit); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	return users, nil
}

// Ensure DeviceTokenRepo implements DeviceTokenRepository
var _ repositories.DeviceTokenRepository = (*DeviceTokenRepo)(nil)

// DeviceTokenRepo implements DeviceTokenRepository using PostgreSQL
type DeviceTokenRepo struct {
	db *sqlx.DB
}

// NewDeviceTokenRepo creates a new device-token repository
func NewDeviceTokenRepo(db *sqlx.DB) *DeviceTokenRepo {
	return &DeviceTokenRepo{db: db}
}

// ListForUsers returns all registered tokens for the given users
func (r *DeviceTokenRepo) ListForUsers(ctx context.Context, userIDs []string) ([]entities.DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, token, created_at
		FROM device_tokens
		WHERE user_id = ANY($1)
	`

	var tokens []entities.DeviceToken
	if err := r.db.SelectContext(ctx, &tokens, query, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}

	return tokens, nil
}

// Insert registers a token for a user; re-registering is a no-op
func (r *DeviceTokenRepo) Insert(ctx context.Context, userID, token string) error {
	query := `
		INSERT INTO device_tokens (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id, token) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to insert device token: %w", err)
	}

	return nil
}

// DeleteToken removes a token wherever it is registered
func (r *DeviceTokenRepo) DeleteToken(ctx context.Context, token string) error {
	query := `DELETE FROM device_tokens WHERE token = $1`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}

	return nil
}
