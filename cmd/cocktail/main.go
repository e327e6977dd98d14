package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cocktail-collective/cocktail/internal/adapter/sqlite"
	"github.com/cocktail-collective/cocktail/internal/assets"
	"github.com/cocktail-collective/cocktail/internal/civitai"
	"github.com/cocktail-collective/cocktail/internal/config"
	"github.com/cocktail-collective/cocktail/internal/domain/event"
	"github.com/cocktail-collective/cocktail/internal/logger"
	"github.com/cocktail-collective/cocktail/internal/service/server"
	"github.com/cocktail-collective/cocktail/internal/service/syncer"
	"go.uber.org/zap"
)

const version = "0.3.0"

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting cocktail",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Open the mirror database
	store, err := sqlite.Open(cfg.Database.Path, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer store.Close()

	// Create catalog API client and fetcher
	apiClient := civitai.NewClient(cfg.API.BaseURL, 0)

	dispatcher := event.NewInMemoryDispatcher()
	dispatcher.Subscribe(event.NewLoggingHandler(zapLogger))

	fetcherCfg := &civitai.FetcherConfig{
		PageLimit:       cfg.API.PageLimit,
		RequestInterval: cfg.API.GetRequestInterval(),
	}
	fetcher := civitai.NewFetcher(fetcherCfg, apiClient, dispatcher, zapLogger)

	// Create asset provider
	providerCfg := &assets.ProviderConfig{
		MaxEntries: cfg.Assets.MaxEntries,
		Timeout:    cfg.Assets.GetDownloadTimeout(),
	}
	provider := assets.NewProvider(providerCfg, zapLogger)

	// Create syncer
	syncerCfg := &syncer.Config{
		SyncInterval: cfg.Sync.GetInterval(),
	}
	syncerService := syncer.New(syncerCfg, fetcher, store, zapLogger)

	// Create HTTP server
	serverCfg := &server.Config{
		BindAddr:      cfg.HTTP.BindAddr,
		AdminUsername: cfg.HTTP.AdminUsername,
		AdminPassword: cfg.HTTP.AdminPassword,
		ReadTimeout:   cfg.HTTP.GetReadTimeout(),
		WriteTimeout:  cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:   cfg.HTTP.GetIdleTimeout(),
	}
	httpServer := server.New(serverCfg, store, provider, syncerService, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server
	go func() {
		if err := httpServer.Start(); err != nil {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Start syncer
	go func() {
		if err := syncerService.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("syncer stopped with error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	zapLogger.Info("application started successfully",
		zap.String("http_addr", cfg.HTTP.BindAddr),
		zap.String("database", cfg.Database.Path),
	)
	<-sigChan

	zapLogger.Info("shutdown signal received, stopping services...")

	// Cancel context to stop the syncer
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop services
	syncerService.Stop()

	// Stop HTTP server
	if err := httpServer.Stop(shutdownCtx); err != nil {
		zapLogger.Error("failed to stop HTTP server gracefully", zap.Error(err))
	}

	zapLogger.Info("application stopped successfully")
}
