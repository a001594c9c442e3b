package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
)

// Ensure TransactionRepo implements TransactionRepository
var _ repositories.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implements TransactionRepository using PostgreSQL
type TransactionRepo struct {
	db *sqlx.DB
}

// NewTransactionRepo creates a new transaction repository
func NewTransactionRepo(db *sqlx.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const transactionColumns = `id, hash, from_user_id, to_user_id, from_address, to_address,
	   amount, asset, fee, status, method, payment_request_id, created_at, updated_at`

// GetByHash retrieves a transaction by its chain hash
func (r *TransactionRepo) GetByHash(ctx context.Context, hash string) (*entities.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE hash = $1`, transactionColumns)

	var tx entities.Transaction
	if err := r.db.GetContext(ctx, &tx, query, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by hash: %w", err)
	}

	return &tx, nil
}

// Insert stores a new transaction. The unique constraint on hash is the
// guard against duplicate webhook deliveries racing the insert path;
// a conflict surfaces as ErrDuplicateTx so callers can treat it as
// already processed.
func (r *TransactionRepo) Insert(ctx context.Context, tx *entities.Transaction) error {
	query := `
		INSERT INTO transactions (hash, from_user_id, to_user_id, from_address, to_address,
			amount, asset, fee, status, method, payment_request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		tx.Hash, tx.FromUserID, tx.ToUserID, tx.FromAddress, tx.ToAddress,
		tx.Amount, tx.Asset, tx.Fee, tx.Status, tx.Method, tx.PaymentRequestID,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repositories.ErrDuplicateTx
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// Confirm applies a hash-keyed update and returns the updated row
func (r *TransactionRepo) Confirm(ctx context.Context, hash string, update repositories.ConfirmUpdate) (*entities.Transaction, error) {
	query := fmt.Sprintf(`
		UPDATE transactions
		SET amount = $2, fee = $3, status = $4, updated_at = NOW()
		WHERE hash = $1
		RETURNING %s
	`, transactionColumns)

	var tx entities.Transaction
	if err := r.db.GetContext(ctx, &tx, query, hash, update.Amount, update.Fee, update.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to confirm transaction: %w", err)
	}

	return &tx, nil
}

// GetByFilter retrieves transactions matching the given filter
func (r *TransactionRepo) GetByFilter(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("(from_user_id = $%d OR to_user_id = $%d)", argIdx, argIdx))
		args = append(args, *filter.UserID)
		argIdx++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.Asset != nil {
		conditions = append(conditions, fmt.Sprintf("asset = $%d", argIdx))
		args = append(args, *filter.Asset)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, transactionColumns, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, filter.Offset)

	var txs []entities.Transaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return txs, nil
}
