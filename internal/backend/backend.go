// Package backend selects and wires a store implementation from config.
package backend

import (
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

// Store is the full storage surface the application needs from a backend.
type Store interface {
	store.TransactionStore
	store.CategoryStore
	store.RecurringStore
	store.UserStore
	store.Notifier
}

// CleanupFunc releases backend resources. Safe to call once at shutdown.
type CleanupFunc func() error

// Open creates the store named by cfg.StoreBackend. The returned cleanup is
// never nil.
func Open(cfg *config.Config, logger *slog.Logger) (Store, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("Initialized memory backend")
		return memory.New(), func() error { return nil }, nil

	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}
}
