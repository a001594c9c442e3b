package repositories

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
)

// ErrNotFound indicates the requested row does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateTx indicates an insert hit the unique constraint on hash;
// the transaction was already recorded by a concurrent delivery.
var ErrDuplicateTx = errors.New("transaction already recorded")

// ConfirmUpdate carries the fields the reconciliation engine overwrites
// when a known transaction reaches finality.
type ConfirmUpdate struct {
	Amount decimal.Decimal
	Fee    decimal.Decimal
	Status entities.TransactionStatus
}

// TransactionRepository defines the interface for transaction data operations
type TransactionRepository interface {
	// GetByHash retrieves a transaction by its chain hash
	GetByHash(ctx context.Context, hash string) (*entities.Transaction, error)

	// Insert stores a new transaction; returns ErrDuplicateTx when a row
	// with the same hash already exists
	Insert(ctx context.Context, tx *entities.Transaction) error

	// Confirm applies a hash-keyed update; idempotent across redeliveries
	Confirm(ctx context.Context, hash string, update ConfirmUpdate) (*entities.Transaction, error)

	// GetByFilter retrieves transactions matching the given filter
	GetByFilter(ctx context.Context, filter entities.TransactionFilter) ([]entities.Transaction, error)
}
