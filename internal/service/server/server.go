package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cocktail-collective/cocktail/internal/assets"
	"github.com/cocktail-collective/cocktail/internal/port"
	"go.uber.org/zap"
)

// Config contains HTTP server configuration
type Config struct {
	BindAddr      string
	AdminUsername string
	AdminPassword string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		BindAddr:     "0.0.0.0:8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Syncer is the sync surface the server exposes over HTTP.
type Syncer interface {
	Sync(ctx context.Context) error
	Syncing() bool
	LastRun() time.Time
}

// Server represents the HTTP API server
type Server struct {
	config         *Config
	store          port.Store
	logger         *zap.Logger
	server         *http.Server
	catalogHandler *CatalogHandler
	assetHandler   *AssetHandler
	adminHandler   *AdminHandler
}

// New creates a new HTTP server
func New(cfg *Config, store port.Store, provider *assets.Provider, syncer Syncer, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		config: cfg,
		store:  store,
		logger: logger,
	}

	s.catalogHandler = NewCatalogHandler(store, syncer, logger)
	s.assetHandler = NewAssetHandler(provider, logger)
	s.adminHandler = NewAdminHandler(syncer, logger)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Catalog endpoints
	mux.HandleFunc("/status", s.catalogHandler.HandleStatus)
	mux.HandleFunc("/models", s.catalogHandler.HandleModels)
	mux.HandleFunc("/models/", s.catalogHandler.HandleModel)

	// Asset endpoint
	mux.HandleFunc("/image", s.assetHandler.HandleImage)

	// Admin endpoints
	adminAuth := BasicAuthMiddleware(cfg.AdminUsername, cfg.AdminPassword, logger)
	mux.HandleFunc("/admin/sync", adminAuth(s.adminHandler.HandleSync))

	s.server = &http.Server{
		Addr:         cfg.BindAddr,
		Handler:      LoggingMiddleware(logger)(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Ping(); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		http.Error(w, "Database connection failed", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","time":"` + time.Now().Format(time.RFC3339) + `"}`))
}
