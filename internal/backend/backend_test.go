package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"famfin/internal/config"
	"famfin/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name string
		app  *config.Config
		want MirrorType
	}{
		{"no spreadsheet", &config.Config{GoogleSheetName: "Ledger"}, MemoryMirror},
		{"spreadsheet", &config.Config{GoogleSpreadsheetID: "sid", GoogleSheetName: "Ledger"}, SheetsMirror},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromAppConfig(tt.app)
			if err != nil {
				t.Fatalf("FromAppConfig: %v", err)
			}
			if cfg.Type != tt.want {
				t.Errorf("Type = %s, want %s", cfg.Type, tt.want)
			}
		})
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryMirror}, false},
		{"unknown type", Config{Type: "ftp"}, true},
		{"sheets without app", Config{Type: SheetsMirror}, true},
		{"sheets without name", Config{Type: SheetsMirror, App: &config.Config{GoogleSpreadsheetID: "sid"}}, true},
		{"sheets", Config{Type: SheetsMirror, App: &config.Config{GoogleSpreadsheetID: "sid", GoogleSheetName: "Ledger"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateWriter(t *testing.T) {
	f := NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	w, err := f.CreateWriter(ctx, Config{Type: MemoryMirror})
	if err != nil {
		t.Fatalf("CreateWriter: %v", err)
	}
	if _, ok := w.(*memory.Store); !ok {
		t.Errorf("got %T, want *memory.Store", w)
	}

	// Sheets without credentials fails before any network call.
	sheetsCfg := Config{Type: SheetsMirror, App: &config.Config{GoogleSpreadsheetID: "sid", GoogleSheetName: "Ledger"}}
	if _, err := f.CreateWriter(ctx, sheetsCfg); err == nil {
		t.Error("expected credentials error")
	}
}
