package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"prihod/internal/amqp"
	"prihod/internal/config"
	"prihod/internal/journal"
	"prihod/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting prihod-worker")

	// Load configuration
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the journal worker")
		os.Exit(1)
	}

	// Initialize the journal repository
	repo, err := journal.NewRepository(cfg.JournalDBPath)
	if err != nil {
		logger.Error("Failed to initialize journal repository", "error", err, "path", cfg.JournalDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize AMQP client for consuming report events
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	journalWorker := worker.NewJournalWorker(repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Consuming report events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	err = amqpClient.ConsumeReportsWithReconnect(ctx, journalWorker.HandleReportEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Report consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
