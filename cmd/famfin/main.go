package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"famfin/internal/auth"
	"famfin/internal/cli"
	apphttp "famfin/internal/http"
	applog "famfin/internal/log"
	"famfin/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.RequireJWTSecret(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher, closePublisher := cli.InitPublisher(logger, cfg)
	defer closePublisher()

	svc := apphttp.Services{
		Accounts:     services.NewAccountService(repo),
		Transactions: services.NewTransactionService(repo, publisher),
		Recurring:    services.NewRecurringService(repo, publisher),
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, auth.New(cfg.JWTSecret), repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting famfin server", "port", cfg.Port, "actions", len(srv.ActionNames()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down famfin server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	stats := srv.Stats()
	logger.Info("Server stopped gracefully",
		"requests", stats.Requests.TotalRequests,
		"client_errors", stats.Requests.ClientErrors,
		"server_errors", stats.Requests.ServerErrors,
		"mean_latency", stats.Requests.MeanLatency,
		"rate_limited", stats.RateLimit.Rejected,
		"suspicious", stats.Suspicious)
}
