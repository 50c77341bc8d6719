// Package main runs the OpenLink relay: one routing server per configured
// network, sharing a single process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openlink/openlink/internal/common/config"
	"github.com/openlink/openlink/internal/common/logger"
	"github.com/openlink/openlink/internal/relay"
	"github.com/openlink/openlink/pkg/models"
)

func main() {
	clean := flag.Bool("clean", false, "wipe the session and registry buckets on startup")
	flag.Parse()

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

	log.Info("Starting OpenLink relay...",
		zap.Strings("networks", cfg.Networks),
		zap.String("nats_url", cfg.NATS.URL),
		zap.Bool("clean", *clean))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect one server per network. A connect failure at startup is
	// fatal for the whole process.
	servers := make([]*relay.Server, 0, len(cfg.Networks))
	for _, network := range cfg.Networks {
		server, err := relay.New(ctx, models.NetworkID(network), cfg, *clean, log)
		if err != nil {
			log.Error("Failed to start network server",
				zap.String("network", network), zap.Error(err))
			for _, s := range servers {
				s.Close()
			}
			os.Exit(1)
		}
		servers = append(servers, server)
		log.Info("Network server connected", zap.String("network", network))
	}
	defer func() {
		for _, s := range servers {
			s.Close()
		}
	}()

	// 4. Run every network loop until one fails or the process is signalled
	group, groupCtx := errgroup.WithContext(ctx)
	for _, server := range servers {
		server := server
		group.Go(func() error {
			return server.Run(groupCtx)
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case sig := <-quit:
		log.Info("Shutting down relay...", zap.String("signal", sig.String()))
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			log.Error("Relay failed", zap.Error(err))
			os.Exit(1)
		}
	}

	log.Info("Relay stopped")
}
