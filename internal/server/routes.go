package server

import (
	"log/slog"
	"net/http"

	chunkHandlers "worldgen-server/internal/chunk/handlers"
	"worldgen-server/internal/middleware"
	serverHandlers "worldgen-server/internal/server/handlers"
)

type Routes struct {
	chunkHandler  *chunkHandlers.ChunkHandler
	healthHandler *serverHandlers.HealthHandler
	authenticator *middleware.Authenticator
}

func NewRoutes(chunkHandler *chunkHandlers.ChunkHandler, healthHandler *serverHandlers.HealthHandler, authenticator *middleware.Authenticator) *Routes {
	return &Routes{
		chunkHandler:  chunkHandler,
		healthHandler: healthHandler,
		authenticator: authenticator,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	// Public endpoints
	mux.Handle("/api/server/health", r.healthHandler)
	mux.Handle("/health", r.healthHandler)
	mux.HandleFunc("/api/server/ready", r.healthHandler.Ready)

	// Protected endpoints (API key or service token)
	protect := r.authenticator.Middleware
	mux.Handle("/api/generate/chunk", protect(http.HandlerFunc(r.chunkHandler.GenerateChunk)))
	mux.Handle("/api/chunks/{id}/stats", protect(http.HandlerFunc(r.chunkHandler.ChunkStats)))
	mux.Handle("/api/bulk_upsert", protect(http.HandlerFunc(r.chunkHandler.BulkUpsert)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/health", "/api/server/ready"},
		"protected_endpoints", []string{"/api/generate/chunk", "/api/chunks/{id}/stats", "/api/bulk_upsert"},
		"auth_enabled", r.authenticator.Enabled(),
	)

	return mux
}
