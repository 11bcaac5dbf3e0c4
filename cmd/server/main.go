package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/clochehq/cloche/internal"
	"github.com/clochehq/cloche/internal/handler"
	"github.com/clochehq/cloche/internal/metrics"
	"github.com/clochehq/cloche/internal/middleware"
	"github.com/clochehq/cloche/internal/repository"
	"github.com/clochehq/cloche/internal/service"
	"github.com/clochehq/cloche/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize file storage
	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	// Initialize services
	quotaService := service.NewQuotaService(repo, logger)
	boutiqueService := service.NewBoutiqueService(repo, logger)
	userService := service.NewUserService(repo, logger)
	showcaseService := service.NewShowcaseService(repo, store, logger)
	conversationService := service.NewConversationService(repo, logger)
	messageService := service.NewMessageService(repo, quotaService, logger)
	productService := service.NewProductService(repo, quotaService, store, service.NewImagingProcessor(), logger)
	leadService := service.NewLeadService(repo, quotaService, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(boutiqueService, userService, showcaseService, quotaService, logger)
	messageHandler := handler.NewMessageHandler(conversationService, messageService, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	leadHandler := handler.NewLeadHandler(leadService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Locally stored uploads (development)
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics endpoint with optional basic auth
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// API routes
	authHandler.RegisterRoutes(mux)
	messageHandler.RegisterRoutes(mux)
	productHandler.RegisterRoutes(mux)
	leadHandler.RegisterRoutes(mux)

	// Wrap the mux with request logging and metrics
	requestLogging := middleware.NewRequestLoggingMiddleware(logger)
	root := metrics.Middleware(requestLogging.Handler(mux))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// newStorage builds the configured storage backend.
func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		st, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
