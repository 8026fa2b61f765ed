// Package main is the entry point for the stock ledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/app"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/config"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/domain/auth"
	v1 "github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/internal/infrastructure/http/v1/middleware"
	"github.com/nazarovr2895-dot/ShopFlowBot-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting stock ledger server",
		"env", cfg.App.Env,
		"storage", cfg.Storage.Driver,
		"depletion_policy", cfg.Inventory.DepletionPolicy,
		"missing_lines", cfg.Inventory.MissingLines,
	)

	// --- Storage ---
	storage, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer storage.Close()

	// --- Services ---
	services, err := app.NewServices(storage, cfg)
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	// --- JWT ---
	var validator middleware.JWTValidator
	if cfg.Auth.Enabled() {
		jwtConfig := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		jwtConfig.Issuer = cfg.Auth.Issuer
		validator = auth.NewJWTService(jwtConfig)
	} else {
		log.Warn("AUTH_JWT_SECRET is empty, API runs without authentication")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Services:       services,
		Storage:        storage,
		StorageDriver:  storage.Driver,
		Logger:         log,
		JWTValidator:   validator,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
