package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRequestStatus is the lifecycle state of a payment request
type PaymentRequestStatus string

const (
	RequestPending   PaymentRequestStatus = "pending"
	RequestCompleted PaymentRequestStatus = "completed"
	RequestDeclined  PaymentRequestStatus = "declined"
	RequestCanceled  PaymentRequestStatus = "canceled"
)

// PaymentRequest asks another user for a payment. Terminal transitions
// are performed only by the requestee (fulfill/decline) or the
// requester (cancel); ownership is enforced in the service layer.
type PaymentRequest struct {
	ID            int64                `db:"id" json:"id"`
	RequesterID   string               `db:"requester_id" json:"requester_id"`
	RequesteeID   string               `db:"requestee_id" json:"requestee_id"`
	Amount        decimal.Decimal      `db:"amount" json:"amount"`
	Message       string               `db:"message" json:"message"`
	Status        PaymentRequestStatus `db:"status" json:"status"`
	TransactionID *int64               `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}
