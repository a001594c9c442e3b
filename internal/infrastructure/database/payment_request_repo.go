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

// Ensure PaymentRequestRepo implements PaymentRequestRepository
var _ repositories.PaymentRequestRepository = (*PaymentRequestRepo)(nil)

// PaymentRequestRepo implements PaymentRequestRepository using PostgreSQL
type PaymentRequestRepo struct {
	db *sqlx.DB
}

// NewPaymentRequestRepo creates a new payment-request repository
func NewPaymentRequestRepo(db *sqlx.DB) *PaymentRequestRepo {
	return &PaymentRequestRepo{db: db}
}

const paymentRequestColumns = `id, requester_id, requestee_id, amount, message, status,
	   transaction_id, created_at, updated_at`

// GetByID retrieves a payment request by its identifier
func (r *PaymentRequestRepo) GetByID(ctx context.Context, id int64) (*entities.PaymentRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_requests WHERE id = $1`, paymentRequestColumns)

	var req entities.PaymentRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}

	return &req, nil
}

// Insert stores a new payment request
func (r *PaymentRequestRepo) Insert(ctx context.Context, req *entities.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests (requester_id, requestee_id, amount, message, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		req.RequesterID, req.RequesteeID, req.Amount, req.Message, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment request: %w", err)
	}

	return nil
}

// UpdateStatus transitions a request to a new status
func (r *PaymentRequestRepo) UpdateStatus(ctx context.Context, id int64, status entities.PaymentRequestStatus, transactionID *int64) error {
	query := `
		UPDATE payment_requests
		SET status = $2, transaction_id = COALESCE($3, transaction_id), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, transactionID)
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
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

// ListForUser returns requests where the user is requester or requestee
func (r *PaymentRequestRepo) ListForUser(ctx context.Context, userID string, limit, offset int) ([]entities.PaymentRequest, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM payment_requests
		WHERE requester_id = $1 OR requestee_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, paymentRequestColumns)

	var reqs []entities.PaymentRequest
	if err := r.db.SelectContext(ctx, &reqs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list payment requests: %w", err)
	}

	return reqs, nil
}
