package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/config"
	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
)

// SignatureHeader carries the HMAC of the raw request body
const SignatureHeader = "X-Alchemy-Signature"

// WebhookHandler ingests chain-activity deliveries. It always answers
// 200: a non-200 here triggers redelivery storms from the provider, so
// bad signatures, malformed payloads, and processing failures are
// acknowledged and only distinguished in logs and metrics.
type WebhookHandler struct {
	engine  *services.ReconciliationEngine
	cfg     config.WebhookConfig
	metrics *middleware.WebhookMetrics
	logger  *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	engine *services.ReconciliationEngine,
	cfg config.WebhookConfig,
	metrics *middleware.WebhookMetrics,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		engine:  engine,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// RegisterRoutes registers the webhook routes
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/chain-activity", h.HandleActivity)
}

// HandleActivity handles POST /webhooks/chain-activity
func (h *WebhookHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	h.metrics.Received.Inc()

	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read webhook body", zap.Error(err))
		h.ack(w, "unreadable body", false)
		return
	}

	if !services.VerifySignature(body, r.Header.Get(SignatureHeader), h.cfg.SigningSecret) {
		h.metrics.InvalidSignature.Inc()
		h.logger.Warn("Webhook signature verification failed",
			zap.Int("body_bytes", len(body)),
		)
		h.ack(w, "signature mismatch, payload discarded", false)
		return
	}

	var event entities.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("Malformed webhook payload", zap.Error(err))
		h.ack(w, "malformed payload", false)
		return
	}

	parsed := services.ParseActivity(event.Event.Activity)
	if parsed.MainTransfer == nil {
		h.logger.Debug("No qualifying transfer in delivery",
			zap.String("webhook_id", event.ID),
			zap.Int("activities", len(event.Event.Activity)),
		)
		h.ack(w, "no transfer found", true)
		return
	}

	if h.engine.Reconcile(r.Context(), parsed) {
		h.metrics.Reconciled.Inc()
		h.ack(w, "reconciled", true)
		return
	}

	// Failure or no-op; either way the provider must not retry
	h.metrics.ReconcileFailures.Inc()
	h.logger.Info("Delivery acknowledged without reconciliation",
		zap.String("webhook_id", event.ID),
		zap.String("hash", parsed.MainTransfer.Hash),
	)
	h.ack(w, "not reconciled", false)
}

// ack always writes HTTP 200
func (h *WebhookHandler) ack(w http.ResponseWriter, message string, success bool) {
	resp := map[string]interface{}{"message": message}
	if success {
		resp["success"] = true
	} else {
		resp["error"] = true
	}
	respondJSON(w, http.StatusOK, resp)
}
