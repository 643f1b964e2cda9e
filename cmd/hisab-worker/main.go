package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"hisab/internal/ai"
	"hisab/internal/amqp"
	"hisab/internal/config"
	"hisab/internal/core"
	"hisab/internal/log"
	"hisab/internal/mail"
	"hisab/internal/services"
	"hisab/internal/sheets"
	"hisab/internal/storage"
	"hisab/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mailer worker.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		logger.Info("SMTP configured", "host", cfg.SMTPHost)
	} else {
		logger.Info("SMTP disabled, email jobs will be dropped")
	}

	var exporter worker.SheetsExporter
	if cfg.SheetsSpreadsheetID != "" {
		sheetsClient, err := sheets.NewClient(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthTokenJSON)
		if err != nil {
			logger.Error("Failed to initialize sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = sheetsClient
		logger.Info("Sheets export configured", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled, export jobs will be dropped")
	}

	clock := core.SystemClock()

	var aiClient *ai.Client
	if cfg.AIEnabled {
		aiClient = ai.New(cfg.OpenAIKey, cfg.OpenAIBase, cfg.OpenAIModel)
		logger.Info("AI features enabled", "model", cfg.OpenAIModel)
	}
	aiAssist := services.NewAIAssistService(repo, aiClient, clock)

	w := worker.New(repo, mailer, aiAssist, exporter, clock, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeJobs(gctx, w.Handle)
	})

	logger.Info("Worker started", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
