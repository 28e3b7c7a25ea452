package main

import (
	"context"
	"os"
	"time"

	"famfin/internal/amqp"
	"famfin/internal/backend"
	"famfin/internal/cli"
	applog "famfin/internal/log"
	"famfin/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting famfin-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required by the ledger mirror")
		os.Exit(1)
	}

	mirrorCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mirror configuration", "error", err)
		os.Exit(1)
	}
	writer, err := backend.NewFactory(logger).CreateWriter(context.Background(), mirrorCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger mirror", "error", err, "mirror", mirrorCfg.Type)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := consumer.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
	})

	mirror := worker.NewMirrorWorker(writer, logger)
	if err := mirror.Run(ctx, consumer); err != nil {
		logger.Error("Ledger mirror stopped", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
