// Package main runs the OpenLink auth service: it exchanges OIDC codes and
// the server secret for broker capability tokens.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openlink/openlink/internal/auth"
	"github.com/openlink/openlink/internal/common/config"
	"github.com/openlink/openlink/internal/common/logger"
)

const oidcTimeout = 10 * time.Second

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting OpenLink auth service...")

	// 3. Create the signing key pair. Ephemeral per process unless a seed
	// is provided, in which case the identity survives restarts.
	issuer, err := auth.NewTokenIssuerFromSeed(os.Getenv("OPENLINK_ACCOUNT_SEED"))
	if err != nil {
		log.Fatal("Failed to initialize signing key pair", zap.Error(err))
	}
	publicKey, err := issuer.PublicKey()
	if err != nil {
		log.Fatal("Failed to read signing public key", zap.Error(err))
	}
	log.Info("Signing account ready", zap.String("public_key", publicKey))

	// 4. Build the HTTP service
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	service := auth.NewService(cfg, issuer, auth.NewOIDCClient(oidcTimeout), log)
	service.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Auth service listening",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Strings("networks", cfg.Networks))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("Auth service failed", zap.Error(err))
		os.Exit(1)
	case sig := <-quit:
		log.Info("Shutting down auth service...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Auth service shutdown error", zap.Error(err))
	}
	log.Info("Auth service stopped")
}
