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

// Ensure WalletRepo implements WalletRepository
var _ repositories.WalletRepository = (*WalletRepo)(nil)

// WalletRepo implements WalletRepository using PostgreSQL
type WalletRepo struct {
	db *sqlx.DB
}

// NewWalletRepo creates a new wallet repository
func NewWalletRepo(db *sqlx.DB) *WalletRepo {
	return &WalletRepo{db: db}
}

// GetByAddress retrieves a wallet by its on-chain address
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*entities.Wallet, error) {
	query := `
		SELECT id, user_id, address, eth_balance, usdc_balance, created_at, updated_at
		FROM wallets
		WHERE address = $1
	`

	var wallet entities.Wallet
	if err := r.db.GetContext(ctx, &wallet, query, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by address: %w", err)
	}

	return &wallet, nil
}

// GetByUserID retrieves the wallet owned by a user
func (r *WalletRepo) GetByUserID(ctx context.Context, userID string) (*entities.Wallet, error) {
	query := `
		SELECT id, user_id, address, eth_balance, usdc_balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var wallet entities.Wallet
	if err := r.db.GetContext(ctx, &wallet, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by user: %w", err)
	}

	return &wallet, nil
}

// UpdateBalances overwrites the cached balances for an address
func (r *WalletRepo) UpdateBalances(ctx context.Context, address, ethBalance, usdcBalance string) error {
	query := `
		UPDATE wallets
		SET eth_balance = $2, usdc_balance = $3, updated_at = NOW()
		WHERE address = $1
	`

	result, err := r.db.ExecContext(ctx, query, address, ethBalance, usdcBalance)
	if err != nil {
		return fmt.Errorf("failed to update wallet balances: %w", err)
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
