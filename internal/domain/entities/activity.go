package entities

import "github.com/shopspring/decimal"

// Activity categories and assets as delivered by the chain-activity webhook
const (
	CategoryExternal = "external"
	CategoryToken    = "token"

	NativeAsset = "ETH"
)

// BootloaderAddress is the rollup's system address. Native-asset movements
// to and from it are fee plumbing, not user transfers.
const BootloaderAddress = "0x0000000000000000000000000000000000008001"

// ChainActivity is a single raw activity record from one webhook delivery.
// One blockchain transaction may emit several of these: the logical token
// transfer plus native-asset fee movements.
type ChainActivity struct {
	Category    string          `json:"category"`
	Asset       string          `json:"asset"`
	FromAddress string          `json:"fromAddress"`
	ToAddress   string          `json:"toAddress"`
	Value       decimal.Decimal `json:"value"`
	Hash        string          `json:"hash"`
}

// ParsedTransfer is the distilled view of one webhook batch: the single
// token transfer representing user intent, plus the net native-asset fee
// paid to the bootloader across the batch. TotalFees is signed; negative
// means a net refund.
type ParsedTransfer struct {
	MainTransfer *ChainActivity
	TotalFees    decimal.Decimal
}

// WebhookEvent is the envelope the activity webhook posts.
type WebhookEvent struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Event struct {
		Network  string          `json:"network"`
		Activity []ChainActivity `json:"activity"`
	} `json:"event"`
}
