package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"worldgen-server/internal/auth"
	"worldgen-server/internal/chunk"
	chunkHandlers "worldgen-server/internal/chunk/handlers"
	"worldgen-server/internal/genconfig"
	"worldgen-server/internal/middleware"
	"worldgen-server/internal/server"
	serverHandlers "worldgen-server/internal/server/handlers"
	"worldgen-server/internal/shared/config"
	"worldgen-server/internal/shared/database"
	"worldgen-server/internal/shared/logger"
	"worldgen-server/internal/shared/redis"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config: %v\n", err)
		os.Exit(1)
	}

	logger.Init()
	cfg := config.GlobalConfig

	log := slog.With("component", "main")
	log.Info("Starting worldgen server",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
	)

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close redis", "error", err)
			}
		}()
	}

	genCfg, err := genconfig.Load(cfg.Generation.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load generation config: %w", err)
	}
	log.Info("Generation config loaded", "path", cfg.Generation.ConfigPath)

	var tokens *auth.TokenIssuer
	if cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
		if err != nil {
			return fmt.Errorf("failed to initialize token issuer: %w", err)
		}
	}
	if !cfg.AuthEnabled() {
		log.Warn("API_KEY and JWT_SECRET are unset, generation endpoints are open")
	}

	repo := chunk.NewRepository(db, slog.Default())
	cache := chunk.NewStatsCache(redisClient, cfg.Generation.StatsCacheTTL, slog.Default())
	service := chunk.NewService(repo, cache, genCfg, slog.Default())

	routes := server.NewRoutes(
		chunkHandlers.NewChunkHandler(service, cfg.Generation.MaxBodyBytes),
		serverHandlers.NewHealthHandler(service),
		middleware.NewAuthenticator(cfg.Auth.APIKey, tokens),
	)
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit)
	cors := middleware.NewCORS(cfg.Frontend)
	handler := cors.Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "url", cfg.Server.URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
