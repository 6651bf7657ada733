package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/amqp"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/config"
	apphttp "github.com/yudong-94/spend-tracking-app-sub001/internal/http"
	applog "github.com/yudong-94/spend-tracking-app-sub001/internal/log"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/services"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/sheets/memory"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/storage"
)

func main() {
	// Load .env for local development; absent in production.
	_ = godotenv.Load()

	logger := applog.New("tracker", applog.LevelFromEnv())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		store      services.SubscriptionCreator
		categories services.CategoryResolver
		ledger     services.LedgerWriter
		publisher  services.LedgerSyncPublisher
	)

	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store, categories, ledger = repo, repo, repo
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)

		// Spreadsheet export rides on AMQP; without it the worker's periodic
		// pass still picks entries up.
		if cfg.AMQPURL != "" {
			amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Warn("AMQP unavailable, relying on periodic sync", "error", err)
			} else {
				defer amqpClient.Close()
				publisher = amqpClient
				logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			}
		}
	default:
		mem := memory.NewWithDefaults()
		store, categories, ledger = mem, mem, mem
		logger.Info("Initialized memory backend")
	}

	reconciler := services.NewReconciler(store, categories, ledger, publisher)
	subscriptions := services.NewSubscriptionService(store, categories)

	srv := apphttp.NewServer(":"+cfg.Port, reconciler, subscriptions, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tracker server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
