package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"famfin/internal/auth"
	"famfin/internal/core"
	"famfin/internal/export"
	applog "famfin/internal/log"
	"famfin/internal/services"
	"famfin/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		return logVersion("Migrations applied")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := storage.RollbackMigration(cfg.SQLiteDBPath); err != nil {
			return err
		}
		return logVersion("Migration reverted")
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return logVersion("Schema status")
	},
}

func logVersion(msg string) error {
	version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	logger.Info(msg,
		applog.FieldOperation, applog.OpMigrate,
		"path", cfg.SQLiteDBPath,
		"version", version,
		"dirty", dirty)
	return nil
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}
		userID, _ := cmd.Flags().GetInt64("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		token, err := auth.New(cfg.JWTSecret).Issue(userID, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute every active account balance from its transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		results, err := services.NewAccountService(repo).RecalculateAll(cmd.Context())
		if err != nil {
			return err
		}
		drifted := 0
		for _, r := range results {
			if !r.Changed() {
				continue
			}
			drifted++
			logger.Warn("Balance corrected",
				applog.FieldAccountID, r.AccountID,
				"previous", r.Previous.String(),
				"current", r.Current.String())
		}
		logger.Info("Recalculation complete", "accounts", len(results), "corrected", drifted)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Materialize due recurring transactions for every family",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asOf, err := dateFlag(cmd, "as-of")
		if err != nil {
			return err
		}
		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		// Events stay off here; the CLI runs without a broker.
		result, err := services.NewRecurringService(repo, nil).GenerateAllDue(cmd.Context(), asOf)
		if err != nil {
			return err
		}
		logger.Info("Generation complete",
			applog.FieldOperation, applog.OpGenerate,
			"rules", result.Rules,
			"created", len(result.Created),
			"failed", result.Failed)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export a family's transactions to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		familyID, _ := cmd.Flags().GetInt64("family")
		if familyID <= 0 {
			return fmt.Errorf("--family is required")
		}
		from, err := dateFlag(cmd, "from")
		if err != nil {
			return err
		}
		to, err := dateFlag(cmd, "to")
		if err != nil {
			return err
		}

		repo, err := openRepo()
		if err != nil {
			return err
		}
		defer repo.Close()

		opts, err := exportOptions(cmd, repo, familyID)
		if err != nil {
			return err
		}

		out, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer out.Close()

		exporter := export.New(services.NewTransactionService(repo, nil), opts)
		n, err := exporter.Export(cmd.Context(), out, familyID, from, to)
		if err != nil {
			return err
		}
		if n == export.MaxRows {
			logger.Warn("Export truncated, narrow the date range", "rows", n)
		}
		logger.Info("Export written",
			applog.FieldOperation, applog.OpExport,
			applog.FieldFamilyID, familyID,
			"rows", n,
			"file", args[0])
		return out.Close()
	},
}

func exportOptions(cmd *cobra.Command, repo *storage.SQLiteRepository, familyID int64) (export.Options, error) {
	q := repo.Queries()
	opts := export.Options{
		Currency:   cfg.DefaultCurrency,
		Locale:     cfg.DefaultLocale,
		Accounts:   make(map[int64]string),
		Categories: make(map[int64]string),
	}
	accounts, err := q.ListAccounts(cmd.Context(), familyID)
	if err != nil {
		return opts, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		opts.Accounts[a.ID] = a.Name
	}
	categories, err := q.ListCategories(cmd.Context(), familyID)
	if err != nil {
		return opts, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		opts.Categories[c.ID] = c.Name
	}
	return opts, nil
}

// dateFlag reads an optional YYYY-MM-DD flag; unset means the zero date.
func dateFlag(cmd *cobra.Command, name string) (core.Date, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("--%s: expected YYYY-MM-DD", name)
	}
	return d, nil
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd, migrateStatusCmd)

	tokenCmd.Flags().Int64("user", 0, "User id the token authenticates")
	tokenCmd.Flags().Duration("ttl", 30*24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")

	generateCmd.Flags().String("as-of", "", "Generate occurrences up to this date (default today)")

	exportCmd.Flags().Int64("family", 0, "Family id to export")
	exportCmd.Flags().String("from", "", "First day, YYYY-MM-DD")
	exportCmd.Flags().String("to", "", "Last day, YYYY-MM-DD")
}
