package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Dependency status values reported by GET /health.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthDown     = "down"
)

// HealthChecker is implemented by infrastructure components that can
// check their backing connection.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports dependency status for the payments API.
// Postgres is required: without it no transfer can be confirmed and
// no request served. Redis only caches resolved balances, so losing
// it degrades the service without taking it out of rotation.
type HealthHandler struct {
	postgres HealthChecker
	redis    HealthChecker
}

// NewHealthHandler creates a health handler. redis may be nil when
// the balance cache is disabled.
func NewHealthHandler(postgres, redis HealthChecker) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
	}
}

// HealthReport is the body of GET /health.
type HealthReport struct {
	Service   string            `json:"service"`
	Status    string            `json:"status"`
	CheckedAt string            `json:"checked_at"`
	Checks    map[string]string `json:"checks"`
}

// Health handles GET /health. Returns 503 only when postgres is
// unreachable; a dead redis is reported as degraded with 200 so load
// balancers keep routing.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report := HealthReport{
		Service:   "pocketpay-api",
		Status:    HealthOK,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}

	if err := h.postgres.HealthCheck(ctx); err != nil {
		report.Status = HealthDown
		report.Checks["postgres"] = err.Error()
	} else {
		report.Checks["postgres"] = HealthOK
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			if report.Status == HealthOK {
				report.Status = HealthDegraded
			}
			report.Checks["redis"] = err.Error()
		} else {
			report.Checks["redis"] = HealthOK
		}
	}

	code := http.StatusOK
	if report.Status == HealthDown {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(report)
}

// Ready handles GET /ready. Readiness tracks postgres alone: the
// service can run degraded without redis but not without its store.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.postgres.HealthCheck(ctx); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Live handles GET /live. Liveness only proves the process is
// serving, never a dependency.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}
