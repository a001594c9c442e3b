package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
)

// PaymentRequestHandler handles HTTP requests for payment requests
type PaymentRequestHandler struct {
	service *services.PaymentRequestService
	logger  *zap.Logger
}

// NewPaymentRequestHandler creates a new payment-request handler
func NewPaymentRequestHandler(service *services.PaymentRequestService, logger *zap.Logger) *PaymentRequestHandler {
	return &PaymentRequestHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the payment-request routes
func (h *PaymentRequestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/payment-requests", h.Create)
	r.Get("/payment-requests", h.List)
	r.Post("/payment-requests/{id}/decline", h.Decline)
	r.Post("/payment-requests/{id}/cancel", h.Cancel)
}

type createRequestBody struct {
	RequesteeID string          `json:"requestee_id"`
	Amount      decimal.Decimal `json:"amount"`
	Message     string          `json:"message"`
}

// Create handles POST /payment-requests
func (h *PaymentRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.RequesteeID == "" || body.Amount.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "requestee_id and a positive amount are required")
		return
	}

	req, err := h.service.Create(r.Context(), userID, body.RequesteeID, body.Amount, body.Message)
	if err != nil {
		h.logger.Error("Failed to create payment request", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, req)
}

// List handles GET /payment-requests
func (h *PaymentRequestHandler) List(w http.ResponseWriter, r *http.Request) {
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

	reqs, err := h.service.List(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list payment requests", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"payment_requests": reqs})
}

// Decline handles POST /payment-requests/{id}/decline
func (h *PaymentRequestHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Decline)
}

// Cancel handles POST /payment-requests/{id}/cancel
func (h *PaymentRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *PaymentRequestHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID string, id int64) error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if err := apply(r.Context(), userID, id); err != nil {
		h.logger.Error("Payment request transition failed",
			zap.Int64("request_id", id),
			zap.Error(err),
		)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
