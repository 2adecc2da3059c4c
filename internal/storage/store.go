package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/snowwhitepl/wydatki/internal/core"

	_ "modernc.org/sqlite"
)

// Store persists the whole entry collection as one serialized JSON
// array under a single key. The stored value is byte-compatible with
// the export/import file format.
type Store struct {
	db  *sql.DB
	key string
}

// Open opens (creating if necessary) the SQLite database at dbPath and
// runs schema migrations. key names the durable slot the collection
// lives under.
func Open(dbPath, key string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, key: key}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadAll reads the full collection from the durable key. An absent
// key yields an empty collection, and so does a value that does not
// parse as a JSON array: corruption only loses data, it never stops
// the application. Every element is normalized before being returned.
func (s *Store) LoadAll(ctx context.Context) []core.Entry {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Reading entries failed, starting empty", "key", s.key, "error", err)
		return nil
	}

	entries, err := core.DecodeEntries([]byte(value))
	if err != nil {
		slog.WarnContext(ctx, "Discarding corrupt entry data", "key", s.key, "error", err)
		return nil
	}
	return entries
}

// SaveAll serializes the full collection and overwrites the durable
// key. Last writer wins; there is no partial write.
func (s *Store) SaveAll(ctx context.Context, entries []core.Entry) error {
	if entries == nil {
		entries = []core.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		s.key, string(data))
	if err != nil {
		return fmt.Errorf("write entries: %w", err)
	}

	slog.DebugContext(ctx, "Entries saved", "key", s.key, "count", len(entries))
	return nil
}
