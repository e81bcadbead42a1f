// Package backend selects and opens the transaction store named by
// DATA_BACKEND.
package backend

import (
	"context"

	"finbot/internal/ledger"
)

// CleanupFunc releases what the backend opened.
type CleanupFunc func() error

// Result carries the opened repository and its cleanup.
type Result struct {
	Repository ledger.Repository
	Cleanup    CleanupFunc
}

// Factory opens a repository for a backend Config.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds what the factory needs to open a store.
type Config struct {
	Type         Type
	SQLiteDBPath string
}

// Type names a storage backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}
