package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/config"
)

// ConfirmationLevel selects which chain state a read observes
type ConfirmationLevel string

const (
	// LevelPending includes transactions still in the mempool
	LevelPending ConfirmationLevel = "pending"
	// LevelLatest is the tip of the chain
	LevelLatest ConfirmationLevel = "latest"
	// LevelCommitted is the safe head; used for post-confirmation
	// balance refreshes
	LevelCommitted ConfirmationLevel = "committed"
)

// blockNumber maps a confirmation level to the RPC block tag
func (l ConfirmationLevel) blockNumber() *big.Int {
	switch l {
	case LevelPending:
		return big.NewInt(int64(rpc.PendingBlockNumber))
	case LevelCommitted:
		return big.NewInt(int64(rpc.SafeBlockNumber))
	default:
		return big.NewInt(int64(rpc.LatestBlockNumber))
	}
}

// transferGasLimit is the gas budget for an ERC-20 transfer call
const transferGasLimit = 65000

// Client wraps the rollup RPC client with retry logic and the token
// helpers the payment flow needs
type Client struct {
	client       *ethclient.Client
	config       config.ChainConfig
	logger       *zap.Logger
	chainID      *big.Int
	usdcContract common.Address
	usdcDecimals int32
}

// NewClient creates a new rollup RPC client
func NewClient(cfg config.ChainConfig, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rollup node: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	if chainID.Int64() != cfg.ChainID {
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", cfg.ChainID, chainID.Int64())
	}

	if !common.IsHexAddress(cfg.USDCAddress) {
		return nil, fmt.Errorf("invalid USDC contract address: %s", cfg.USDCAddress)
	}

	logger.Info("Connected to rollup node",
		zap.String("rpc_url", cfg.RPCURL),
		zap.Int64("chain_id", chainID.Int64()),
		zap.String("usdc_contract", cfg.USDCAddress),
	)

	return &Client{
		client:       client,
		config:       cfg,
		logger:       logger,
		chainID:      chainID,
		usdcContract: common.HexToAddress(cfg.USDCAddress),
		usdcDecimals: int32(cfg.USDCDecimals),
	}, nil
}

// Close closes the RPC client connection
func (c *Client) Close() {
	c.client.Close()
}

// PendingNonce returns the next transaction nonce for an address,
// including transactions still in the mempool
func (c *Client) PendingNonce(ctx context.Context, address string) (uint64, error) {
	var nonce uint64
	var err error

	addr := common.HexToAddress(address)
	for i := 0; i <= c.config.MaxRetries; i++ {
		nonce, err = c.client.PendingNonceAt(ctx, addr)
		if err == nil {
			return nonce, nil
		}

		c.logger.Warn("Failed to get pending nonce, retrying",
			zap.String("address", address),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return 0, fmt.Errorf("failed to get pending nonce after %d retries: %w", c.config.MaxRetries, err)
}

// NativeBalance returns the ETH balance of an address in whole-ether
// units at the given confirmation level
func (c *Client) NativeBalance(ctx context.Context, address string, level ConfirmationLevel) (decimal.Decimal, error) {
	var wei *big.Int
	var err error

	addr := common.HexToAddress(address)
	for i := 0; i <= c.config.MaxRetries; i++ {
		wei, err = c.client.BalanceAt(ctx, addr, level.blockNumber())
		if err == nil {
			return decimal.NewFromBigInt(wei, -18), nil
		}

		c.logger.Warn("Failed to get native balance, retrying",
			zap.String("address", address),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return decimal.Zero, fmt.Errorf("failed to get native balance after %d retries: %w", c.config.MaxRetries, err)
}

// TokenBalance returns the USDC balance of an address, scaled to whole
// token units, at the given confirmation level
func (c *Client) TokenBalance(ctx context.Context, address string, level ConfirmationLevel) (decimal.Decimal, error) {
	msg := ethereum.CallMsg{
		To:   &c.usdcContract,
		Data: PackBalanceOf(common.HexToAddress(address)),
	}

	var out []byte
	var err error

	for i := 0; i <= c.config.MaxRetries; i++ {
		out, err = c.client.CallContract(ctx, msg, level.blockNumber())
		if err == nil {
			raw := new(big.Int).SetBytes(out)
			return decimal.NewFromBigInt(raw, -c.usdcDecimals), nil
		}

		c.logger.Warn("Failed to get token balance, retrying",
			zap.String("address", address),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		if i < c.config.MaxRetries {
			time.Sleep(c.config.RetryDelay)
		}
	}

	return decimal.Zero, fmt.Errorf("failed to get token balance after %d retries: %w", c.config.MaxRetries, err)
}

// FeeEstimate is the suggested cost of a token transfer
type FeeEstimate struct {
	GasPrice *big.Int
	GasLimit uint64
	// TotalEth is GasPrice * GasLimit in whole-ether units
	TotalEth decimal.Decimal
}

// EstimateTransferFee returns the current suggested fee for a token transfer
func (c *Client) EstimateTransferFee(ctx context.Context) (*FeeEstimate, error) {
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	total := new(big.Int).Mul(gasPrice, big.NewInt(transferGasLimit))

	return &FeeEstimate{
		GasPrice: gasPrice,
		GasLimit: transferGasLimit,
		TotalEth: decimal.NewFromBigInt(total, -18),
	}, nil
}

// UnsignedTransfer describes an ERC-20 transfer for client-side signing
type UnsignedTransfer struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Nonce    uint64 `json:"nonce"`
	GasLimit uint64 `json:"gas_limit"`
	GasPrice string `json:"gas_price"`
	ChainID  int64  `json:"chain_id"`
}

// BuildTokenTransfer assembles the unsigned call the app signs locally.
// Amount is in whole token units.
func (c *Client) BuildTokenTransfer(ctx context.Context, from, to string, amount decimal.Decimal) (*UnsignedTransfer, error) {
	nonce, err := c.PendingNonce(ctx, from)
	if err != nil {
		return nil, err
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	raw := amount.Shift(c.usdcDecimals).BigInt()
	data := PackTransfer(common.HexToAddress(to), raw)

	return &UnsignedTransfer{
		To:       c.usdcContract.Hex(),
		Data:     "0x" + common.Bytes2Hex(data),
		Value:    "0",
		Nonce:    nonce,
		GasLimit: transferGasLimit,
		GasPrice: gasPrice.String(),
		ChainID:  c.chainID.Int64(),
	}, nil
}

// BroadcastRaw decodes a pre-signed transaction and submits it to the
// network, returning its hash
func (c *Client) BroadcastRaw(ctx context.Context, rawHex string) (string, error) {
	raw, err := decodeHex(rawHex)
	if err != nil {
		return "", fmt.Errorf("invalid raw transaction encoding: %w", err)
	}

	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return "", fmt.Errorf("failed to decode raw transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, &tx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	return tx.Hash().Hex(), nil
}

// ChainID returns the chain ID
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// EthClient returns the underlying ethclient for advanced operations
func (c *Client) EthClient() *ethclient.Client {
	return c.client
}
