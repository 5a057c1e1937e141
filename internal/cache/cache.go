// Package cache is the device-local persistence tier: the full ledger
// store serialized as one blob under a fixed key in a SQLite database.
// It is the single source of truth while offline and the migration seed
// on first login, so it is scoped to the device, not the identity.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// blobKey is the fixed device-scoped key the store lives under.
const blobKey = "budget_data"

type Cache struct {
	db *sql.DB
}

func New(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Read loads the cached store. It never fails: a missing row or an
// unparseable blob degrades to an empty store so the caller always has
// something to work with.
func (c *Cache) Read(ctx context.Context) core.Store {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT data FROM budget_cache WHERE key = ?`, blobKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Store{}
	}
	if err != nil {
		slog.WarnContext(ctx, "Cache read failed, starting from empty store", "error", err)
		return core.Store{}
	}

	store, err := core.DecodeStore(data)
	if err != nil {
		slog.WarnContext(ctx, "Cached store is unparseable, starting from empty store", "error", err)
		return core.Store{}
	}
	return store
}

// Write persists the full store synchronously, best-effort. Serialization
// or storage failures are logged and swallowed; the caller proceeds with
// its in-memory copy either way.
func (c *Cache) Write(ctx context.Context, store core.Store) {
	data, err := core.EncodeStore(store)
	if err != nil {
		slog.WarnContext(ctx, "Failed to serialize store, nothing persisted this round", "error", err)
		return
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO budget_cache (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		blobKey, data, time.Now().UTC())
	if err != nil {
		slog.WarnContext(ctx, "Cache write failed, nothing persisted this round", "error", err)
	}
}
