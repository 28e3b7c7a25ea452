package backend

import (
	"context"
	"fmt"
	"log/slog"

	"famfin/internal/sheets"
	gsheet "famfin/internal/sheets/google"
	"famfin/internal/sheets/memory"
)

// Factory builds the ledger writer for a mirror configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateWriter validates cfg and returns the matching writer.
func (f *Factory) CreateWriter(ctx context.Context, cfg Config) (sheets.LedgerWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case SheetsMirror:
		client, err := gsheet.NewFromConfig(ctx, cfg.App)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets mirror",
			"spreadsheet_id", cfg.App.GoogleSpreadsheetID,
			"sheet", cfg.App.GoogleSheetName)
		return client, nil
	case MemoryMirror:
		f.logger.Warn("No spreadsheet configured, mirroring to memory only")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported mirror type: %s", cfg.Type)
	}
}
