package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rmaulana/pocketpay/internal/application/services"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps well-known service errors onto HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrForbidden):
		respondError(w, http.StatusForbidden, "not permitted")
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(w, http.StatusConflict, "invalid state transition")
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, services.ErrSelfTarget):
		respondError(w, http.StatusBadRequest, "cannot target yourself")
	case errors.Is(err, services.ErrAlreadyLinked):
		respondError(w, http.StatusConflict, "request already exists")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
