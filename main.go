package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aster-trading-bot/config"
	"aster-trading-bot/internal/api"
	"aster-trading-bot/internal/auth"
	"aster-trading-bot/internal/cache"
	"aster-trading-bot/internal/database"
	"aster-trading-bot/internal/exchange"
	"aster-trading-bot/internal/logging"
	"aster-trading-bot/internal/position"
	"aster-trading-bot/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(cfg.LoggingConfig)
	logger.Info().Msg("Logging initialized")

	ctx := context.Background()

	// Resolve exchange credentials from Vault when enabled
	if cfg.VaultConfig.Enabled {
		vaultClient, err := vault.NewClient(cfg.VaultConfig)
		if err != nil {
			log.Fatalf("Failed to create vault client: %v", err)
		}
		creds, err := vaultClient.LoadCredentials(ctx)
		if err != nil {
			log.Fatalf("Failed to load exchange credentials from vault: %v", err)
		}
		cfg.ExchangeConfig.APIKey = creds.APIKey
		cfg.ExchangeConfig.SecretKey = creds.SecretKey
		logger.Info().Msg("Exchange credentials loaded from Vault")
	}

	// Initialize database
	db, err := database.NewDB(cfg.DatabaseConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis response cache (optional)
	var cacheSvc *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheSvc, err = cache.NewCacheService(cfg.RedisConfig)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis cache disabled")
			cacheSvc = nil
		} else {
			defer cacheSvc.Close()
		}
	}

	// Exchange client and the reconciliation service
	client := exchange.NewHTTPClient(cfg.ExchangeConfig, logger)
	positionService := position.NewService(client, db, cfg.TradingConfig, logger)

	if cfg.TradingConfig.SimulateOnly {
		logger.Warn().Msg("SIMULATE_ONLY is enabled, close orders will not reach the exchange")
	}

	// Dashboard auth (optional)
	var authService *auth.Service
	if cfg.AuthConfig.Enabled {
		if cfg.AuthConfig.JWTSecret == "" {
			log.Fatalf("Auth is enabled but jwt_secret is empty")
		}
		authService = auth.NewService(cfg.AuthConfig)
		logger.Info().Str("username", cfg.AuthConfig.Username).Msg("Dashboard authentication enabled")
	}

	server := api.NewServer(cfg.ServerConfig, db, positionService, client, authService, cacheSvc, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownTimeout := 10 * time.Second
	if cfg.ServerConfig.ShutdownTimeout > 0 {
		shutdownTimeout = time.Duration(cfg.ServerConfig.ShutdownTimeout) * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}

	logger.Info().Msg("Shutdown complete")
}
