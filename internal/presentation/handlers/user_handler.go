package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/repositories"
	"github.com/rmaulana/pocketpay/internal/infrastructure/push"
	"github.com/rmaulana/pocketpay/internal/presentation/middleware"
)

// UserHandler handles profile lookup and device registration
type UserHandler struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.DeviceTokenRepository
	logger    *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userRepo repositories.UserRepository,
	tokenRepo repositories.DeviceTokenRepository,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// RegisterRoutes registers the user routes
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/me", h.Me)
	r.Get("/users/search", h.Search)
	r.Post("/users/me/devices", h.RegisterDevice)
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load profile", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Search handles GET /users/search?q=prefix
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		respondError(w, http.StatusBadRequest, "query must be at least 2 characters")
		return
	}

	users, err := h.userRepo.Search(r.Context(), query, 20)
	if err != nil {
		h.logger.Error("User search failed", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// RegisterDevice handles POST /users/me/devices
func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !push.IsValidToken(body.Token) {
		respondError(w, http.StatusBadRequest, "invalid push token")
		return
	}

	if err := h.tokenRepo.Insert(r.Context(), userID, body.Token); err != nil {
		h.logger.Error("Failed to register device token", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
}
