package repositories

import (
	"context"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
)

// WalletRepository defines the interface for wallet data operations
type WalletRepository interface {
	// GetByAddress retrieves a wallet by its on-chain address
	GetByAddress(ctx context.Context, address string) (*entities.Wallet, error)

	// GetByUserID retrieves the wallet owned by a user
	GetByUserID(ctx context.Context, userID string) (*entities.Wallet, error)

	// UpdateBalances overwrites the cached balances for an address
	UpdateBalances(ctx context.Context, address, ethBalance, usdcBalance string) error
}

// UserRepository defines the interface for profile data operations
type UserRepository interface {
	// GetByID retrieves a user profile by its identifier
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// Search finds profiles whose username matches the given prefix
	Search(ctx context.Context, query string, limit int) ([]entities.User, error)
}

// DeviceTokenRepository defines the interface for push-token operations
type DeviceTokenRepository interface {
	// ListForUsers returns all registered tokens for the given users
	ListForUsers(ctx context.Context, userIDs []string) ([]entities.DeviceToken, error)

	// Insert registers a token for a user; registering the same token
	// twice is a no-op
	Insert(ctx context.Context, userID, token string) error

	// DeleteToken removes a token wherever it is registered
	DeleteToken(ctx context.Context, token string) error
}
