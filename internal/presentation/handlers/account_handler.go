package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
)

// AccountHandler exposes chain-account reads: nonce, fee estimates,
// and live balances for the caller's wallet
type AccountHandler struct {
	service *services.TransferService
	logger  *zap.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(service *services.TransferService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/account/nonce", h.GetNonce)
	r.Get("/account/fees", h.GetFees)
	r.Get("/account/balances", h.GetBalances)
}

// GetNonce handles GET /account/nonce
func (h *AccountHandler) GetNonce(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	nonce, err := h.service.Nonce(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get nonce", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]uint64{"nonce": nonce})
}

// GetFees handles GET /account/fees
func (h *AccountHandler) GetFees(w http.ResponseWriter, r *http.Request) {
	estimate, err := h.service.Fees(r.Context())
	if err != nil {
		h.logger.Error("Failed to estimate fees", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"gas_price": estimate.GasPrice.String(),
		"gas_limit": estimate.GasLimit,
		"total_eth": estimate.TotalEth.String(),
	})
}

// GetBalances handles GET /account/balances
func (h *AccountHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wallet, err := h.service.Balances(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to read balances", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"address": wallet.Address,
		"eth":     wallet.EthBalance,
		"usdc":    wallet.UsdcBalance,
	})
}
