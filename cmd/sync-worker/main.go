package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/amqp"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/config"
	applog "github.com/yudong-94/spend-tracking-app-sub001/internal/log"
	gsheet "github.com/yudong-94/spend-tracking-app-sub001/internal/sheets/google"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/storage"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New("sync-worker", applog.LevelFromEnv())
	applog.SetDefault(logger)

	logger.Info("Starting sync worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required: the worker has nothing to export without it")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	// Verify spreadsheet access up front by reading the category sheet.
	if cats, err := sheetsClient.ListCategories(context.Background()); err != nil {
		logger.Warn("Could not read category sheet", "error", err)
	} else {
		logger.Info("Spreadsheet reachable", "categories", len(cats))
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on entries whose sync message was lost before we started.
	if err := syncWorker.ProcessPendingEntries(ctx); err != nil {
		logger.Error("Startup sync pass failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeLedgerSync(gctx, syncWorker.HandleSyncMessage)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := syncWorker.ProcessPendingEntries(gctx); err != nil {
					logger.Error("Periodic sync pass failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
