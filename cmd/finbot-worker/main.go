// Command finbot-worker mirrors transaction events into a Google Sheet.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/cache"
	"finbot/internal/cli"
	"finbot/internal/config"
	"finbot/internal/log"
	"finbot/internal/sheets"
	gsheet "finbot/internal/sheets/google"
	sheetsmem "finbot/internal/sheets/memory"
	"finbot/internal/storage"
	"finbot/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info", log.ComponentWorker).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting finbot-worker")

	if err := run(cfg, logger); err != nil {
		logger.Failure(context.Background(), "Worker stopped with error", log.OpMirror, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the mirror worker")
	}
	if cfg.DataBackend != "sqlite" {
		return errors.New("the mirror worker reads transactions from the sqlite backend")
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	sink, err := newSink(cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	mirror := worker.NewMirrorWorker(repo, sink)
	caches := cache.NewManager()
	if c, ok := mirror.Seen().(cache.Cleaner); ok {
		caches.Register("seen_events", c)
	}
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)
	err = client.ConsumeEvents(ctx, mirror.HandleEvent)
	if errors.Is(err, context.Canceled) {
		cli.WaitForShutdown(ctx, done)
		return nil
	}
	return err
}

func newSink(cfg *config.Config, logger *log.Logger) (sheets.RowWriter, error) {
	if !cfg.MirrorEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring into memory only")
		return sheetsmem.New(), nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
