package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
	"github.com/rmaulana/pocketpay/internal/infrastructure/cache"
	"github.com/rmaulana/pocketpay/internal/infrastructure/ethereum"
)

// IdentityResolver maps an on-chain address to an app user, if one is
// linked. Most chain addresses are not app users, so absence is the
// common case and not an error. Store failures are deliberately
// collapsed into "not found" as well: the reconciliation engine treats
// an unresolvable party the same as an external one.
type IdentityResolver struct {
	walletRepo repositories.WalletRepository
	userRepo   repositories.UserRepository
	cache      *cache.RedisCache
	logger     *zap.Logger
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(
	walletRepo repositories.WalletRepository,
	userRepo repositories.UserRepository,
	c *cache.RedisCache,
	logger *zap.Logger,
) *IdentityResolver {
	return &IdentityResolver{
		walletRepo: walletRepo,
		userRepo:   userRepo,
		cache:      c,
		logger:     logger,
	}
}

// Resolve returns the user owning the given address, or nil if the
// address is unknown, unlinked, or the lookup failed
func (r *IdentityResolver) Resolve(ctx context.Context, address string) *entities.User {
	checksummed, err := ethereum.ChecksumAddress(address)
	if err != nil {
		r.logger.Debug("Unresolvable address", zap.String("address", address), zap.Error(err))
		return nil
	}

	cacheKey := "resolver:addr:" + checksummed

	if r.cache != nil {
		var cached entities.User
		if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached
		}
	}

	wallet, err := r.walletRepo.GetByAddress(ctx, checksummed)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			r.logger.Warn("Wallet lookup failed", zap.String("address", checksummed), zap.Error(err))
		}
		return nil
	}

	user, err := r.userRepo.GetByID(ctx, wallet.UserID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			r.logger.Warn("Profile lookup failed", zap.String("user_id", wallet.UserID), zap.Error(err))
		}
		return nil
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, user); err != nil {
			r.logger.Debug("Failed to cache resolved identity", zap.Error(err))
		}
	}

	return user
}
