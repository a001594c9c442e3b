package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transfer
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionConfirmed TransactionStatus = "confirmed"
)

// Transaction methods classify how a transfer originated
const (
	MethodTransfer           = "transfer"
	MethodRequestFulfillment = "request_fulfillment"
)

// Transaction represents a stablecoin transfer between two parties.
// Hash is the natural key; a given hash is created at most once and
// later webhook deliveries update the same row. Either party may be
// unknown to the system, in which case the user ID is nil.
type Transaction struct {
	ID               int64             `db:"id" json:"id"`
	Hash             string            `db:"hash" json:"hash"`
	FromUserID       *string           `db:"from_user_id" json:"from_user_id"`
	ToUserID         *string           `db:"to_user_id" json:"to_user_id"`
	FromAddress      string            `db:"from_address" json:"from_address"`
	ToAddress        string            `db:"to_address" json:"to_address"`
	Amount           decimal.Decimal   `db:"amount" json:"amount"`
	Asset            string            `db:"asset" json:"asset"`
	Fee              decimal.Decimal   `db:"fee" json:"fee"`
	Status           TransactionStatus `db:"status" json:"status"`
	Method           string            `db:"method" json:"method"`
	PaymentRequestID *int64            `db:"payment_request_id" json:"payment_request_id,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// TransactionFilter contains filters for querying transaction history
type TransactionFilter struct {
	UserID *string
	Status *TransactionStatus
	Asset  *string
	Limit  int
	Offset int
}

// DefaultTransactionFilter returns a filter with sensible defaults
func DefaultTransactionFilter() TransactionFilter {
	return TransactionFilter{
		Limit:  50,
		Offset: 0,
	}
}
