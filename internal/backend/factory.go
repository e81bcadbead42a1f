package backend

import (
	"context"
	"fmt"

	"finbot/internal/log"
	"finbot/internal/storage"
	"finbot/internal/storage/memory"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentStorage)}
}

// CreateBackend opens the store and checks that it answers.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var res *Result
	switch config.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res = &Result{Repository: repo, Cleanup: repo.Close}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case Memory:
		store := memory.New()
		res = &Result{Repository: store, Cleanup: store.Close}
		f.logger.Warn("Initialized memory backend; data is lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if err := res.Repository.Ping(ctx); err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("ping %s backend: %w", config.Type, err)
	}
	return res, nil
}
