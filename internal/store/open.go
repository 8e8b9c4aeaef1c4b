package store

import (
	"context"
	"fmt"

	"vibeauth/internal/config"
)

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file store requires DB_PATH")
		}
		return NewFileStore(cfg.FilePath), nil
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.BackendMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
