package main

import (
	"context"
	"os"
	"time"

	"famfin/internal/cli"
	applog "famfin/internal/log"
	"famfin/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher, closePublisher := cli.InitPublisher(logger, cfg)
	defer closePublisher()

	processorCfg := services.DefaultRecurringProcessorConfig()
	processorCfg.PollInterval = cfg.RecurringInterval
	processor := services.NewRecurringProcessor(
		services.NewRecurringService(repo, publisher),
		services.NewAccountService(repo),
		processorCfg,
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop recurring processor", "error", err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start recurring processor", "error", err)
		os.Exit(1)
	}
	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	cli.WaitForShutdown(ctx, done)
}
