package backend

import (
	"fmt"

	"famfin/internal/config"
)

// MirrorType selects where mirrored ledger rows go.
type MirrorType string

const (
	SheetsMirror MirrorType = "sheets"
	MemoryMirror MirrorType = "memory"
)

func (t MirrorType) IsValid() bool {
	return t == SheetsMirror || t == MemoryMirror
}

func (t MirrorType) String() string {
	return string(t)
}

// Config describes the mirror backend.
type Config struct {
	Type MirrorType

	// App carries the spreadsheet settings and credentials.
	App *config.Config
}

// FromAppConfig picks the Sheets mirror when a spreadsheet is configured
// and the in-memory mirror otherwise.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	typ := MemoryMirror
	if appConfig.MirrorEnabled() {
		typ = SheetsMirror
	}
	return Config{Type: typ, App: appConfig}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid mirror type: %s", c.Type)
	}
	if c.Type == SheetsMirror {
		if c.App == nil || c.App.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for the sheets mirror")
		}
		if c.App.GoogleSheetName == "" {
			return fmt.Errorf("Google Sheet name is required for the sheets mirror")
		}
	}
	return nil
}
