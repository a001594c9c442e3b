package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
)

// FriendshipHandler handles HTTP requests for the friend graph
type FriendshipHandler struct {
	service *services.FriendshipService
	logger  *zap.Logger
}

// NewFriendshipHandler creates a new friendship handler
func NewFriendshipHandler(service *services.FriendshipService, logger *zap.Logger) *FriendshipHandler {
	return &FriendshipHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the friendship routes
func (h *FriendshipHandler) RegisterRoutes(r chi.Router) {
	r.Get("/friends", h.ListFriends)
	r.Get("/friends/requests", h.ListPending)
	r.Post("/friends/requests", h.Request)
	r.Post("/friends/requests/{id}/accept", h.Accept)
	r.Post("/friends/requests/{id}/decline", h.Decline)
	r.Post("/friends/requests/{id}/cancel", h.Cancel)
}

// ListFriends handles GET /friends
func (h *FriendshipHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	friends, err := h.service.Friends(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list friends", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"friends": friends})
}

// ListPending handles GET /friends/requests
func (h *FriendshipHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	pending, err := h.service.Pending(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list pending requests", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": pending})
}

// Request handles POST /friends/requests
func (h *FriendshipHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body struct {
		RequesteeID string `json:"requestee_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RequesteeID == "" {
		respondError(w, http.StatusBadRequest, "requestee_id is required")
		return
	}

	friendship, err := h.service.Request(r.Context(), userID, body.RequesteeID)
	if err != nil {
		h.logger.Error("Failed to create friend request", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, friendship)
}

// Accept handles POST /friends/requests/{id}/accept
func (h *FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept)
}

// Decline handles POST /friends/requests/{id}/decline
func (h *FriendshipHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Decline)
}

// Cancel handles POST /friends/requests/{id}/cancel
func (h *FriendshipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *FriendshipHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID string, id int64) error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid friendship id")
		return
	}

	if err := apply(r.Context(), userID, id); err != nil {
		h.logger.Error("Friendship transition failed",
			zap.Int64("friendship_id", id),
			zap.Error(err),
		)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
