package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
)

// Common test addresses and identities
const (
	AliceAddress = "0x1111111111111111111111111111111111111111"
	BobAddress   = "0x2222222222222222222222222222222222222222"
	CharlieAddr  = "0x3333333333333333333333333333333333333333"
	SystemAddr   = entities.BootloaderAddress

	AliceID = "user-alice"
	BobID   = "user-bob"
)

// CreateTestActivity creates a webhook activity record with default values
func CreateTestActivity(opts ...ActivityOption) entities.ChainActivity {
	a := entities.ChainActivity{
		Category:    entities.CategoryToken,
		Asset:       "USDC",
		FromAddress: AliceAddress,
		ToAddress:   BobAddress,
		Value:       decimal.NewFromInt(25),
		Hash:        "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}

	for _, opt := range opts {
		opt(&a)
	}

	return a
}

type ActivityOption func(*entities.ChainActivity)

func WithCategory(category string) ActivityOption {
	return func(a *entities.ChainActivity) {
		a.Category = category
	}
}

func WithAsset(asset string) ActivityOption {
	return func(a *entities.ChainActivity) {
		a.Asset = asset
	}
}

func WithFromAddress(addr string) ActivityOption {
	return func(a *entities.ChainActivity) {
		a.FromAddress = addr
	}
}

func WithToAddress(addr string) ActivityOption {
	return func(a *entities.ChainActivity) {
		a.ToAddress = addr
	}
}

func WithValue(value decimal.Decimal) ActivityOption {
	return func(a *entities.ChainActivity) {
		a.Value = value
	}
}

func WithHash(hash string) ActivityOption {
	return func(a *entities.ChainActivity) {
		a.Hash = hash
	}
}

// CreateTestTransaction creates a stored transaction with default values
func CreateTestTransaction(opts ...TransactionOption) entities.Transaction {
	aliceID := AliceID
	bobID := BobID
	tx := entities.Transaction{
		ID:          1,
		Hash:        "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		FromUserID:  &aliceID,
		ToUserID:    &bobID,
		FromAddress: AliceAddress,
		ToAddress:   BobAddress,
		Amount:      decimal.NewFromInt(25),
		Asset:       "USDC",
		Fee:         decimal.Zero,
		Status:      entities.TransactionPending,
		Method:      entities.MethodTransfer,
		CreatedAt:   time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	for _, opt := range opts {
		opt(&tx)
	}

	return tx
}

type TransactionOption func(*entities.Transaction)

func WithTxHash(hash string) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.Hash = hash
	}
}

func WithStatus(status entities.TransactionStatus) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.Status = status
	}
}

func WithFromUser(id *string) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.FromUserID = id
	}
}

func WithToUser(id *string) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.ToUserID = id
	}
}

func WithAmount(amount decimal.Decimal) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.Amount = amount
	}
}

func WithPaymentRequest(id int64) TransactionOption {
	return func(tx *entities.Transaction) {
		tx.PaymentRequestID = &id
	}
}

// CreateTestUser creates a user profile with default values
func CreateTestUser(id, username string) entities.User {
	return entities.User{
		ID:          id,
		Username:    username,
		DisplayName: username,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// CreateTestWallet creates a wallet row with default values
func CreateTestWallet(userID, address string) entities.Wallet {
	return entities.Wallet{
		ID:          1,
		UserID:      userID,
		Address:     address,
		EthBalance:  "0",
		UsdcBalance: "0",
	}
}

// StrPtr returns a pointer to the given string
func StrPtr(s string) *string {
	return &s
}
