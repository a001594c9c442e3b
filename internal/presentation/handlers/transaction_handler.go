package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
)

// TransactionHandler handles HTTP requests for transfers
type TransactionHandler struct {
	service *services.TransferService
	logger  *zap.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service *services.TransferService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the transaction routes
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/transactions", h.Send)
	r.Post("/transactions/prepare", h.Prepare)
	r.Get("/transactions", h.History)
}

// Send handles POST /transactions: broadcast a pre-signed transfer and
// record it as pending
func (h *TransactionHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req services.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SignedTx == "" || req.ToAddress == "" {
		respondError(w, http.StatusBadRequest, "signed_tx and to_address are required")
		return
	}

	tx, err := h.service.Send(r.Context(), userID, req)
	if err != nil {
		h.logger.Error("Failed to send transfer", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, tx)
}

type prepareRequest struct {
	ToAddress string          `json:"to_address"`
	Amount    decimal.Decimal `json:"amount"`
}

// Prepare handles POST /transactions/prepare: build the unsigned
// transfer the app signs locally
func (h *TransactionHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req prepareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ToAddress == "" || req.Amount.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "to_address and a positive amount are required")
		return
	}

	unsigned, err := h.service.Prepare(r.Context(), userID, req.ToAddress, req.Amount)
	if err != nil {
		h.logger.Error("Failed to prepare transfer", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, unsigned)
}

// History handles GET /transactions
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil && o >= 0 {
			offset = o
		}
	}

	txs, err := h.service.History(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get transaction history", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"limit":        limit,
		"offset":       offset,
	})
}
