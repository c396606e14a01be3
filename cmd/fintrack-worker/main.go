package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/adapters"
	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
	ports "fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != "sqlite" {
		logger.Error("The mirror worker reads the SQLite ledger, set DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg)
	defer repo.Close()

	var mirror ports.LedgerWriter
	if cfg.MirrorEnabled() {
		sheetsLog := logger.WithComponent(log.ComponentSheets)
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			sheetsLog.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		sheetsLog.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = memory.New()
		logger.Info("Google Sheets mirror disabled, mirroring to memory", "target", cfg.MirrorTarget)
	}

	procCfg := services.DefaultMirrorProcessorConfig()
	procCfg.Target = cfg.MirrorTarget
	procCfg.ResyncInterval = cfg.SyncInterval
	processor := services.NewMirrorProcessor(adapters.NewPersistence(repo), repo, mirror, procCfg)

	var consumer worker.Consumer
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	if err := worker.NewMirrorWorker(processor).Run(ctx, consumer); err != nil {
		logger.Error("Mirror worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
