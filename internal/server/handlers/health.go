package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"worldgen-server/internal/shared/errors"
	"worldgen-server/internal/shared/response"
)

type HealthResponse struct {
	OK        bool   `json:"ok"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "disconnected"
	if err := h.store.Ping(ctx); err == nil {
		dbStatus = "connected"
	} else {
		logger.Warn("Database ping failed", "error", err)
	}

	resp := HealthResponse{
		OK:        true,
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  dbStatus,
	}

	response.Success(w, http.StatusOK, resp)
}

// Ready answers 503 while the store is unreachable, so load balancers stop
// routing generation traffic to this instance.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "ready")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		response.ErrorWithMessage(w, r, logger,
			errors.WrapExternal("database ping failed", err), "database unavailable")
		return
	}

	response.Success(w, http.StatusOK, map[string]string{"status": "ready"})
}
