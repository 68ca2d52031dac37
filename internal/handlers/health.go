package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/photofriends/backend/internal/logging"
)

// HealthHandler responds with service health information. Checker is
// optional; without it the handler only reports liveness.
type HealthHandler struct {
	Checker HealthChecker
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	payload := map[string]string{"status": "ok"}
	status := http.StatusOK

	if h.Checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Checker.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Error("health check failed", "error", err)
			payload["status"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	respondJSON(r.Context(), w, status, payload)
}
