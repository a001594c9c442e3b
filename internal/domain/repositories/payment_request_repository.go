package repositories

import (
	"context"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
)

// PaymentRequestRepository defines the interface for payment-request operations
type PaymentRequestRepository interface {
	// GetByID retrieves a payment request by its identifier
	GetByID(ctx context.Context, id int64) (*entities.PaymentRequest, error)

	// Insert stores a new payment request
	Insert(ctx context.Context, req *entities.PaymentRequest) error

	// UpdateStatus transitions a request to a new status, optionally
	// linking the fulfilling transaction
	UpdateStatus(ctx context.Context, id int64, status entities.PaymentRequestStatus, transactionID *int64) error

	// ListForUser returns requests where the user is requester or requestee
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]entities.PaymentRequest, error)
}

// FriendshipRepository defines the interface for friend-graph operations
type FriendshipRepository interface {
	// GetByID retrieves a friendship row by its identifier
	GetByID(ctx context.Context, id int64) (*entities.Friendship, error)

	// GetByPair retrieves the single row for an unordered user pair
	GetByPair(ctx context.Context, userA, userB string) (*entities.Friendship, error)

	// Insert stores a new friendship row
	Insert(ctx context.Context, f *entities.Friendship) error

	// Update overwrites status and direction of an existing row
	Update(ctx context.Context, f *entities.Friendship) error

	// ListFriends returns accepted friendships involving the user
	ListFriends(ctx context.Context, userID string) ([]entities.Friendship, error)

	// ListPendingFor returns pending requests addressed to the user
	ListPendingFor(ctx context.Context, userID string) ([]entities.Friendship, error)
}
