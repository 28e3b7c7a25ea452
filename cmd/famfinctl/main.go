package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"famfin/internal/cli"
	"famfin/internal/config"
	applog "famfin/internal/log"
	"famfin/internal/storage"
)

var (
	dbPath   string
	logLevel string

	logger *applog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "famfinctl",
	Short:         "Operator tooling for the famfin ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		cfg = config.Load()
		if cmd.Flags().Changed("db") {
			cfg.SQLiteDBPath = dbPath
		}
		if !cmd.Flags().Changed("log-level") {
			logLevel = cfg.LogLevel
		}
		level, err := applog.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		handler := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "famfinctl",
			Level:           log.Level(level),
		})
		logger = applog.New(applog.Config{Handler: handler, Component: applog.ComponentCLI})
		applog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// openRepo opens the configured database, applying pending migrations.
func openRepo() (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.SQLiteDBPath, err)
	}
	return repo, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(migrateCmd, tokenCmd, recalcCmd, generateCmd, exportCmd)
	rootCmd.AddCommand(familyCmd, userCmd, categoryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("Command failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
