package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
	"github.com/rmaulana/pocketpay/internal/infrastructure/ethereum"
)

// ChainClient is the full chain surface the send path depends on
type ChainClient interface {
	BalanceReader
	PendingNonce(ctx context.Context, address string) (uint64, error)
	EstimateTransferFee(ctx context.Context) (*ethereum.FeeEstimate, error)
	BuildTokenTransfer(ctx context.Context, from, to string, amount decimal.Decimal) (*ethereum.UnsignedTransfer, error)
	BroadcastRaw(ctx context.Context, rawHex string) (string, error)
}

// TransferService handles the synchronous send path: transactions
// arrive pre-signed from the app, are broadcast to the chain, and are
// recorded locally in pending status. The reconciliation engine later
// confirms them on webhook sighting.
type TransferService struct {
	chain       ChainClient
	resolver    *IdentityResolver
	txRepo      repositories.TransactionRepository
	walletRepo  repositories.WalletRepository
	requestRepo repositories.PaymentRequestRepository
	asset       string
	logger      *zap.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(
	chain ChainClient,
	resolver *IdentityResolver,
	txRepo repositories.TransactionRepository,
	walletRepo repositories.WalletRepository,
	requestRepo repositories.PaymentRequestRepository,
	asset string,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		chain:       chain,
		resolver:    resolver,
		txRepo:      txRepo,
		walletRepo:  walletRepo,
		requestRepo: requestRepo,
		asset:       asset,
		logger:      logger,
	}
}

// SendRequest is a pre-signed transfer ready to broadcast
type SendRequest struct {
	SignedTx         string          `json:"signed_tx"`
	ToAddress        string          `json:"to_address"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentRequestID *int64          `json:"payment_request_id,omitempty"`
}

// Send broadcasts a pre-signed transfer and records it in pending
// status. When the transfer fulfills a payment request, the request is
// marked completed and linked to the new transaction.
func (s *TransferService) Send(ctx context.Context, userID string, req SendRequest) (*entities.Transaction, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender wallet: %w", err)
	}

	toAddress, err := ethereum.ChecksumAddress(req.ToAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	// Pre-broadcast balance check at the chain tip. The chain enforces
	// this anyway; checking here turns a burned-gas revert into a 4xx.
	balance, err := s.chain.TokenBalance(ctx, wallet.Address, ethereum.LevelLatest)
	if err != nil {
		return nil, fmt.Errorf("failed to read sender balance: %w", err)
	}
	if balance.LessThan(req.Amount) {
		return nil, ErrInsufficientFunds
	}

	if req.PaymentRequestID != nil {
		if err := s.checkFulfillment(ctx, userID, *req.PaymentRequestID); err != nil {
			return nil, err
		}
	}

	hash, err := s.chain.BroadcastRaw(ctx, req.SignedTx)
	if err != nil {
		return nil, fmt.Errorf("broadcast failed: %w", err)
	}

	method := entities.MethodTransfer
	if req.PaymentRequestID != nil {
		method = entities.MethodRequestFulfillment
	}

	tx := &entities.Transaction{
		Hash:             hash,
		FromUserID:       &userID,
		FromAddress:      wallet.Address,
		ToAddress:        toAddress,
		Amount:           req.Amount,
		Asset:            s.asset,
		Fee:              decimal.Zero,
		Status:           entities.TransactionPending,
		Method:           method,
		PaymentRequestID: req.PaymentRequestID,
	}
	if recipient := s.resolver.Resolve(ctx, toAddress); recipient != nil {
		tx.ToUserID = &recipient.ID
	}

	if err := s.txRepo.Insert(ctx, tx); err != nil {
		if errors.Is(err, repositories.ErrDuplicateTx) {
			// The chain accepted a hash we already track; return the row
			return s.txRepo.GetByHash(ctx, hash)
		}
		// The transaction is on chain either way; the webhook path will
		// pick it up as a first-seen transfer
		return nil, fmt.Errorf("broadcast succeeded but recording failed: %w", err)
	}

	if req.PaymentRequestID != nil {
		if err := s.requestRepo.UpdateStatus(ctx, *req.PaymentRequestID, entities.RequestCompleted, &tx.ID); err != nil {
			s.logger.Warn("Failed to mark payment request completed",
				zap.Int64("request_id", *req.PaymentRequestID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Transfer broadcast",
		zap.String("hash", hash),
		zap.String("from_user", userID),
		zap.String("amount", req.Amount.String()),
	)

	return tx, nil
}

// checkFulfillment verifies the caller is the requestee of a still
// pending payment request
func (s *TransferService) checkFulfillment(ctx context.Context, userID string, requestID int64) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to load payment request: %w", err)
	}
	if req.RequesteeID != userID {
		return ErrForbidden
	}
	if req.Status != entities.RequestPending {
		return ErrInvalidTransition
	}
	return nil
}

// Prepare assembles the unsigned transfer the app signs locally
func (s *TransferService) Prepare(ctx context.Context, userID, toAddress string, amount decimal.Decimal) (*ethereum.UnsignedTransfer, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender wallet: %w", err)
	}

	to, err := ethereum.ChecksumAddress(toAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	return s.chain.BuildTokenTransfer(ctx, wallet.Address, to, amount)
}

// Nonce returns the caller's next transaction nonce
func (s *TransferService) Nonce(ctx context.Context, userID string) (uint64, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load wallet: %w", err)
	}
	return s.chain.PendingNonce(ctx, wallet.Address)
}

// Fees returns the current suggested transfer fee
func (s *TransferService) Fees(ctx context.Context) (*ethereum.FeeEstimate, error) {
	return s.chain.EstimateTransferFee(ctx)
}

// Balances reads the caller's live balances at the chain tip and
// refreshes the wallet cache as a side effect; a cache write failure
// does not fail the read
func (s *TransferService) Balances(ctx context.Context, userID string) (*entities.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	eth, err := s.chain.NativeBalance(ctx, wallet.Address, ethereum.LevelLatest)
	if err != nil {
		return nil, fmt.Errorf("failed to read native balance: %w", err)
	}
	usdc, err := s.chain.TokenBalance(ctx, wallet.Address, ethereum.LevelLatest)
	if err != nil {
		return nil, fmt.Errorf("failed to read token balance: %w", err)
	}

	wallet.EthBalance = eth.String()
	wallet.UsdcBalance = usdc.String()

	if err := s.walletRepo.UpdateBalances(ctx, wallet.Address, wallet.EthBalance, wallet.UsdcBalance); err != nil {
		s.logger.Warn("Failed to refresh wallet cache", zap.Error(err))
	}

	return wallet, nil
}

// History returns the caller's transaction history
func (s *TransferService) History(ctx context.Context, userID string, limit, offset int) ([]entities.Transaction, error) {
	filter := entities.DefaultTransactionFilter()
	filter.UserID = &userID
	if limit > 0 {
		filter.Limit = limit
	}
	if offset >= 0 {
		filter.Offset = offset
	}
	return s.txRepo.GetByFilter(ctx, filter)
}
