package handler

import (
	"context"
	"net/http"
	"time"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	storage PingFunc
	redis   PingFunc
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when the cache is disabled.
func NewHealthHandler(storage, redis PingFunc) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		redis:   redis,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}

	if h.storage != nil {
		if err := h.storage(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "storage unhealthy", err.Error())
			return
		}
		status["storage"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unhealthy", err.Error())
			return
		}
		status["redis"] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
