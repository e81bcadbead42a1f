package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"finbot/internal/config"
	"finbot/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		want    Type
		wantErr bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "sqlite", cfg: &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"}, want: SQLite},
		{name: "memory", cfg: &config.Config{DataBackend: "memory"}, want: Memory},
		{name: "unknown", cfg: &config.Config{DataBackend: "sheets"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Type != tt.want {
				t.Errorf("FromAppConfig() type = %v, want %v", got.Type, tt.want)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	for _, cfg := range []Config{
		{Type: Memory},
		{Type: SQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "finbot.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend() error = %v", err)
			}
			defer res.Cleanup()

			tx, err := res.Repository.InsertTransaction(ctx, core.Transaction{
				UserID: 1, Amount: 10, Description: "coffee", Kind: core.Expense, Category: "еда",
			})
			if err != nil || tx.ID == 0 {
				t.Fatalf("insert through backend: %+v, %v", tx, err)
			}
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLite})
	if err == nil || !strings.Contains(err.Error(), "path is required") {
		t.Fatalf("expected missing path error, got %v", err)
	}
}
