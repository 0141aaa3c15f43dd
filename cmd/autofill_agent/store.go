package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/config"
)

// openStore picks the template cache backend: Postgres when a database URL
// is configured, otherwise SQLite (defaulting to a file under the user
// cache directory).
func openStore(ctx context.Context, cfg config.Config) (cache.Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := cache.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres cache store: %w", err)
		}
		return store, nil
	}

	path := cfg.CacheDB
	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate user cache dir: %w", err)
		}
		path = filepath.Join(dir, "autofill-agent", "templates.db")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
	}

	store, err := cache.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache store %s: %w", path, err)
	}
	return store, nil
}
