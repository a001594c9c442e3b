package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
	"github.com/rmaulana/pocketpay/internal/infrastructure/ethereum"
)

// BalanceReader is the subset of the chain client the engine needs to
// refresh wallet caches
type BalanceReader interface {
	NativeBalance(ctx context.Context, address string, level ethereum.ConfirmationLevel) (decimal.Decimal, error)
	TokenBalance(ctx context.Context, address string, level ethereum.ConfirmationLevel) (decimal.Decimal, error)
}

// ReconciliationEngine applies chain activity to local state. Given a
// parsed transfer it decides between three paths: confirm a transaction
// the sender pre-registered at broadcast time, record a first-seen
// inbound transfer to a known user, or do nothing because the transfer
// is entirely external.
//
// The engine must tolerate at-least-once webhook delivery: the confirm
// path is idempotent by hash-keyed update, and the insert path treats a
// duplicate-hash conflict as already processed.
type ReconciliationEngine struct {
	resolver   *IdentityResolver
	txRepo     repositories.TransactionRepository
	walletRepo repositories.WalletRepository
	chain      BalanceReader
	notifier   Notifier
	logger     *zap.Logger
}

// NewReconciliationEngine creates a new reconciliation engine
func NewReconciliationEngine(
	resolver *IdentityResolver,
	txRepo repositories.TransactionRepository,
	walletRepo repositories.WalletRepository,
	chain BalanceReader,
	notifier Notifier,
	logger *zap.Logger,
) *ReconciliationEngine {
	return &ReconciliationEngine{
		resolver:   resolver,
		txRepo:     txRepo,
		walletRepo: walletRepo,
		chain:      chain,
		notifier:   notifier,
		logger:     logger,
	}
}

// Reconcile applies one parsed transfer. It returns true only when the
// chosen path completed all of its required mutations; the caller logs
// failures but still acknowledges the webhook.
func (e *ReconciliationEngine) Reconcile(ctx context.Context, parsed entities.ParsedTransfer) bool {
	if parsed.MainTransfer == nil {
		return false
	}
	transfer := parsed.MainTransfer

	var sender, recipient *entities.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sender = e.resolver.Resolve(gctx, transfer.FromAddress)
		return nil
	})
	g.Go(func() error {
		recipient = e.resolver.Resolve(gctx, transfer.ToAddress)
		return nil
	})
	_ = g.Wait()

	if sender == nil && recipient == nil {
		// Entirely external transfer; nothing to reconcile
		return false
	}

	existing, err := e.txRepo.GetByHash(ctx, transfer.Hash)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		e.logger.Error("Transaction lookup failed",
			zap.String("hash", transfer.Hash),
			zap.Error(err),
		)
		return false
	}

	switch {
	case existing != nil:
		return e.confirmExisting(ctx, transfer, parsed.TotalFees, sender, recipient)
	case recipient != nil:
		return e.recordInbound(ctx, transfer, parsed.TotalFees, sender, recipient)
	default:
		// No known row and the recipient is not ours; the sender just
		// paid an external address, which a later delivery for their
		// own broadcast will cover
		return false
	}
}

// confirmExisting transitions a pre-registered transaction to confirmed
// and refreshes the caches of every known party
func (e *ReconciliationEngine) confirmExisting(
	ctx context.Context,
	transfer *entities.ChainActivity,
	fees decimal.Decimal,
	sender, recipient *entities.User,
) bool {
	updated, err := e.txRepo.Confirm(ctx, transfer.Hash, repositories.ConfirmUpdate{
		Amount: transfer.Value,
		Fee:    fees,
		Status: entities.TransactionConfirmed,
	})
	if err != nil {
		e.logger.Error("Failed to confirm transaction",
			zap.String("hash", transfer.Hash),
			zap.Error(err),
		)
		return false
	}

	if recipient == nil {
		// Recipient unknown; only the sender's cache needs refreshing
		if err := e.refreshWallet(ctx, transfer.FromAddress); err != nil {
			e.logger.Error("Failed to refresh sender wallet", zap.Error(err))
			return false
		}
		return true
	}

	title := "Payment Received"
	if updated.PaymentRequestID != nil {
		title = "Payment Fulfilled"
	}
	notification := Notification{
		Title: title,
		Body:  formatAmount(updated.Amount) + " " + updated.Asset,
		Data: map[string]string{
			"hash": updated.Hash,
			"type": "payment",
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	if sender != nil {
		g.Go(func() error { return e.refreshWallet(gctx, transfer.FromAddress) })
	}
	g.Go(func() error { return e.refreshWallet(gctx, transfer.ToAddress) })
	g.Go(func() error {
		e.notifier.Notify(gctx, []string{recipient.ID}, notification)
		return nil
	})
	if err := g.Wait(); err != nil {
		// The notification may already be out; an inconsistent wallet
		// cache heals on the next redelivery or refresh
		e.logger.Error("Wallet refresh failed after confirm",
			zap.String("hash", transfer.Hash),
			zap.Error(err),
		)
		return false
	}

	e.logger.Info("Transaction confirmed",
		zap.String("hash", updated.Hash),
		zap.String("amount", updated.Amount.String()),
	)
	return true
}

// recordInbound inserts a first-seen transfer whose recipient is a
// known user. There was never a pending row, so the transaction is
// created directly in confirmed status.
func (e *ReconciliationEngine) recordInbound(
	ctx context.Context,
	transfer *entities.ChainActivity,
	fees decimal.Decimal,
	sender, recipient *entities.User,
) bool {
	tx := &entities.Transaction{
		Hash:        transfer.Hash,
		ToUserID:    &recipient.ID,
		FromAddress: transfer.FromAddress,
		ToAddress:   transfer.ToAddress,
		Amount:      transfer.Value,
		Asset:       transfer.Asset,
		Fee:         fees,
		Status:      entities.TransactionConfirmed,
		Method:      entities.MethodTransfer,
	}
	if sender != nil {
		tx.FromUserID = &sender.ID
	}

	if err := e.txRepo.Insert(ctx, tx); err != nil {
		if errors.Is(err, repositories.ErrDuplicateTx) {
			// A concurrent delivery won the race; already processed
			e.logger.Info("Duplicate inbound transfer ignored", zap.String("hash", transfer.Hash))
			return true
		}
		e.logger.Error("Failed to record inbound transfer",
			zap.String("hash", transfer.Hash),
			zap.Error(err),
		)
		return false
	}

	if err := e.refreshWallet(ctx, transfer.ToAddress); err != nil {
		e.logger.Error("Failed to refresh recipient wallet", zap.Error(err))
		return false
	}

	e.notifier.Notify(ctx, []string{recipient.ID}, Notification{
		Title: "Payment Received",
		Body:  formatAmount(tx.Amount) + " " + tx.Asset + " from " + abbreviateAddress(tx.FromAddress),
		Data: map[string]string{
			"hash": tx.Hash,
			"type": "payment",
		},
	})

	e.logger.Info("Inbound transfer recorded",
		zap.String("hash", tx.Hash),
		zap.String("to_user", recipient.ID),
	)
	return true
}

// refreshWallet overwrites the cached balances for an address with
// fresh reads at the committed confirmation level
func (e *ReconciliationEngine) refreshWallet(ctx context.Context, address string) error {
	eth, err := e.chain.NativeBalance(ctx, address, ethereum.LevelCommitted)
	if err != nil {
		return err
	}

	usdc, err := e.chain.TokenBalance(ctx, address, ethereum.LevelCommitted)
	if err != nil {
		return err
	}

	return e.walletRepo.UpdateBalances(ctx, address, eth.String(), usdc.String())
}

// formatAmount renders an amount with no decimals when integral and
// two otherwise
func formatAmount(amount decimal.Decimal) string {
	if amount.IsInteger() {
		return amount.StringFixed(0)
	}
	return amount.StringFixed(2)
}

// abbreviateAddress shortens an address to its first six and last four
// characters
func abbreviateAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
