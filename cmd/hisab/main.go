package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hisab/internal/ai"
	"hisab/internal/amqp"
	"hisab/internal/auth"
	"hisab/internal/config"
	"hisab/internal/core"
	apphttp "hisab/internal/http"
	"hisab/internal/log"
	"hisab/internal/services"
	"hisab/internal/storage"
)

func main() {
	// Load .env for local development; in containers the environment is
	// already populated.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	clock := core.SystemClock()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, clock)
	limiter := auth.NewLoginLimiter(cfg.LoginMaxAttempts, cfg.LoginLockoutWindow, clock)

	// The job queue is optional; without it background features degrade to
	// validation errors instead of failing startup.
	var publisher services.JobPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, background jobs unavailable")
	}

	var aiClient *ai.Client
	if cfg.AIEnabled {
		aiClient = ai.New(cfg.OpenAIKey, cfg.OpenAIBase, cfg.OpenAIModel)
		logger.Info("AI features enabled", "model", cfg.OpenAIModel)
	}

	notifier := services.NewNotifier(repo, clock, cfg.WarningThreshold, cfg.NotifyDedup, logger)

	srv := apphttp.NewServer(cfg, apphttp.Deps{
		Repo:          repo,
		Tokens:        tokens,
		Accounts:      services.NewAccountService(repo, tokens, limiter, publisher, clock, logger),
		Expenses:      services.NewExpenseService(repo, notifier, clock, logger),
		Categories:    services.NewCategoryService(repo, clock),
		Budgets:       services.NewBudgetService(repo, clock),
		Goals:         services.NewGoalService(repo, clock, logger),
		Notifications: services.NewNotificationService(repo),
		Analytics:     services.NewAnalyticsService(repo, clock),
		AIAssist:      services.NewAIAssistService(repo, aiClient, clock),
		Admin:         services.NewAdminService(repo, clock, logger),
		Publisher:     publisher,
		SheetsEnabled: cfg.SheetsSpreadsheetID != "",
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", log.FieldError, err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped")
}
