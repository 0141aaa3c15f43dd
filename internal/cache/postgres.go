// Package cache - postgres.go provides a PostgreSQL-backed Store for shared deployments.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/form-autofill/internal/types"
)

// PostgresStore persists the template namespace in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and ensures the namespace table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migration := `
	CREATE TABLE IF NOT EXISTS template_namespaces (
		namespace  TEXT PRIMARY KEY,
		templates  JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if _, err := pool.Exec(ctx, migration); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate postgres store: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Load reads the template map; a missing namespace row is an empty map.
func (s *PostgresStore) Load(ctx context.Context) (map[string]types.CachedTemplate, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT templates FROM template_namespaces WHERE namespace = $1`, cacheNamespace,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return make(map[string]types.CachedTemplate), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template namespace: %w", err)
	}

	templates := make(map[string]types.CachedTemplate)
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse template namespace: %w", err)
	}
	return templates, nil
}

// Save replaces the template map in a single upsert.
func (s *PostgresStore) Save(ctx context.Context, templates map[string]types.CachedTemplate) error {
	raw, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO template_namespaces (namespace, templates, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (namespace) DO UPDATE SET templates = $2, updated_at = NOW()`,
		cacheNamespace, raw)
	if err != nil {
		return fmt.Errorf("failed to save template namespace: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
