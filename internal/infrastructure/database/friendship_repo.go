package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
)

// Ensure FriendshipRepo implements FriendshipRepository
var _ repositories.FriendshipRepository = (*FriendshipRepo)(nil)

// FriendshipRepo implements FriendshipRepository using PostgreSQL
type FriendshipRepo struct {
	db *sqlx.DB
}

// NewFriendshipRepo creates a new friendship repository
func NewFriendshipRepo(db *sqlx.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

const friendshipColumns = `id, requester_id, requestee_id, status, created_at, updated_at`

// GetByID retrieves a friendship row by its identifier
func (r *FriendshipRepo) GetByID(ctx context.Context, id int64) (*entities.Friendship, error) {
	query := fmt.Sprintf(`SELECT %s FROM friendships WHERE id = $1`, friendshipColumns)

	var f entities.Friendship
	if err := r.db.GetContext(ctx, &f, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}

	return &f, nil
}

// GetByPair retrieves the single row for an unordered user pair
func (r *FriendshipRepo) GetByPair(ctx context.Context, userA, userB string) (*entities.Friendship, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM friendships
		WHERE (requester_id = $1 AND requestee_id = $2)
		   OR (requester_id = $2 AND requestee_id = $1)
	`, friendshipColumns)

	var f entities.Friendship
	if err := r.db.GetContext(ctx, &f, query, userA, userB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get friendship by pair: %w", err)
	}

	return &f, nil
}

// Insert stores a new friendship row
func (r *FriendshipRepo) Insert(ctx context.Context, f *entities.Friendship) error {
	query := `
		INSERT INTO friendships (requester_id, requestee_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		f.RequesterID, f.RequesteeID, f.Status,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert friendship: %w", err)
	}

	return nil
}

// Update overwrites status and direction of an existing row
func (r *FriendshipRepo) Update(ctx context.Context, f *entities.Friendship) error {
	query := `
		UPDATE friendships
		SET requester_id = $2, requestee_id = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, f.ID, f.RequesterID, f.RequesteeID, f.Status)
	if err != nil {
		return fmt.Errorf("failed to update friendship: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return repositories.ErrNotFound
	}

	return nil
}

// ListFriends returns accepted friendships involving the user
func (r *FriendshipRepo) ListFriends(ctx context.Context, userID string) ([]entities.Friendship, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM friendships
		WHERE (requester_id = $1 OR requestee_id = $1) AND status = $2
		ORDER BY updated_at DESC
	`, friendshipColumns)

	var friends []entities.Friendship
	if err := r.db.SelectContext(ctx, &friends, query, userID, entities.FriendshipAccepted); err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	return friends, nil
}

// ListPendingFor returns pending requests addressed to the user
func (r *FriendshipRepo) ListPendingFor(ctx context.Context, userID string) ([]entities.Friendship, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM friendships
		WHERE requestee_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, friendshipColumns)

	var pending []entities.Friendship
	if err := r.db.SelectContext(ctx, &pending, query, userID, entities.FriendshipPending); err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	return pending, nil
}
