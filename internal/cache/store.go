// Package cache implements the opt-in expansion cache.
//
// Expansion is deterministic, so output can be reused whenever the
// input bytes, the effective type table, and the generator options all
// match. The cache is an accelerator only: any failure inside it
// degrades to plain expansion, never to a wrong or missing result.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/PDLPorters/genpp/internal/config"
)

// Store is a sqlite-backed cache of expansion results, keyed by the
// content hash from Key. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open creates or opens the cache database inside dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	path := filepath.Join(dir, config.CacheDBName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS expansions (
		key        TEXT PRIMARY KEY,
		run_id     TEXT NOT NULL,
		line_count INTEGER NOT NULL,
		output     BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing cache schema: %w", err)
	}
	return nil
}

// Lookup returns the cached output lines for key, with ok reporting
// whether the key was present.
func (s *Store) Lookup(key string) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	var lineCount int
	err := s.db.QueryRow(
		`SELECT output, line_count FROM expansions WHERE key = ?`, key,
	).Scan(&blob, &lineCount)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}
	if lineCount == 0 {
		return []string{}, true, nil
	}
	return strings.Split(string(blob), "\n"), true, nil
}

// Put stores output lines under key, replacing any previous entry.
// Each stored row carries a fresh run id for cache inspection.
func (s *Store) Put(key string, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO expansions (key, run_id, line_count, output) VALUES (?, ?, ?, ?)`,
		key, uuid.NewString(), len(lines), []byte(strings.Join(lines, "\n")),
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Clean drops every cached entry.
func (s *Store) Clean() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM expansions`); err != nil {
		return fmt.Errorf("cache clean: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
