// Package cache - sqlite.go provides a SQLite-backed Store for local runs.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonathan/form-autofill/internal/types"
)

// cacheNamespace is the single logical record holding the template map,
// independent of any other state the host application persists.
const cacheNamespace = "form_template_cache"

// SQLiteStore persists the template namespace in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a SQLite database at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to exec %s: %w", pragma, err)
		}
	}

	migration := `
	CREATE TABLE IF NOT EXISTS template_namespaces (
		namespace  TEXT PRIMARY KEY,
		templates  TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads the template map; a missing namespace row is an empty map.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]types.CachedTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT templates FROM template_namespaces WHERE namespace = ?`, cacheNamespace)

	var raw string
	err := row.Scan(&raw)
	if err == sql.ErrNoRows {
		return make(map[string]types.CachedTemplate), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template namespace: %w", err)
	}

	templates := make(map[string]types.CachedTemplate)
	if err := json.Unmarshal([]byte(raw), &templates); err != nil {
		return nil, fmt.Errorf("failed to parse template namespace: %w", err)
	}
	return templates, nil
}

// Save replaces the template map in a single upsert.
func (s *SQLiteStore) Save(ctx context.Context, templates map[string]types.CachedTemplate) error {
	raw, err := json.Marshal(templates)
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO template_namespaces (namespace, templates, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (namespace) DO UPDATE SET templates = excluded.templates, updated_at = excluded.updated_at`,
		cacheNamespace, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save template namespace: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
