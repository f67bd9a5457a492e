// Package store owns the SQLite database backing the service: the moderation
// word lists (single-row word_review_state table) and the actor_state
// key-value table the actor substrate persists into.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

// Open creates the database file if missing, applies WAL and busy-timeout
// pragmas and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS word_review_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			approved_json TEXT NOT NULL DEFAULT '[]',
			rejected_json TEXT NOT NULL DEFAULT '[]',
			updated_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s','now') AS INTEGER))
		);`,
		`INSERT OR IGNORE INTO word_review_state (id, approved_json, rejected_json, updated_at)
			VALUES (1, '[]', '[]', CAST(strftime('%s','now') AS INTEGER));`,
		`CREATE TABLE IF NOT EXISTS actor_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadWordReview returns the approved and rejected lists as stored. Corrupt
// JSON degrades to empty lists rather than failing reads.
func (s *Store) LoadWordReview() (approved, rejected []string, err error) {
	row := s.db.QueryRow(`SELECT approved_json, rejected_json FROM word_review_state WHERE id = 1`)
	var approvedJSON, rejectedJSON string
	if err := row.Scan(&approvedJSON, &rejectedJSON); err != nil {
		if err == sql.ErrNoRows {
			return []string{}, []string{}, nil
		}
		return nil, nil, err
	}
	if err := json.Unmarshal([]byte(approvedJSON), &approved); err != nil {
		approved = []string{}
	}
	if err := json.Unmarshal([]byte(rejectedJSON), &rejected); err != nil {
		rejected = []string{}
	}
	return approved, rejected, nil
}

func (s *Store) SaveWordReview(approved, rejected []string) error {
	approvedJSON, err := json.Marshal(approved)
	if err != nil {
		return err
	}
	rejectedJSON, err := json.Marshal(rejected)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO word_review_state (id, approved_json, rejected_json, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			approved_json = excluded.approved_json,
			rejected_json = excluded.rejected_json,
			updated_at = excluded.updated_at`,
		string(approvedJSON), string(rejectedJSON), time.Now().Unix())
	return err
}

// GetActorState reads one durable record; ok is false when the key is unset.
func (s *Store) GetActorState(key string) (value []byte, ok bool, err error) {
	row := s.db.QueryRow(`SELECT value FROM actor_state WHERE key = ?`, key)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *Store) PutActorState(key string, value []byte) error {
	_, err := s.db.Exec(`INSERT INTO actor_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, string(value), time.Now().Unix())
	return err
}
