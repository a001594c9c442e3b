package entities

import "time"

// Wallet links an on-chain address to its owning user and caches the
// last observed balances. The chain is the source of truth; these
// columns are an eventually-consistent cache refreshed after every
// settled transfer touching the address.
type Wallet struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Address     string    `db:"address" json:"address"`
	EthBalance  string    `db:"eth_balance" json:"eth_balance"`
	UsdcBalance string    `db:"usdc_balance" json:"usdc_balance"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
