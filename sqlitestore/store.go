// Package sqlitestore provides a cosynight.TokenStore backed by SQLite, for
// hosts that keep their state in a database rather than loose files. Each
// Store holds one token record under a key, so several accounts can share a
// database file without sharing a session.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tj-smith47/cosynight-go"
)

// DefaultKey is the record key used by Open.
const DefaultKey = "default"

// Store is a cosynight.TokenStore backed by SQLite. All public methods are
// safe for concurrent use (SQLite serializes writes).
type Store struct {
	db     *sql.DB
	key    string
	ownsDB bool
}

var (
	_ cosynight.TokenStore   = (*Store)(nil)
	_ cosynight.TokenDeleter = (*Store)(nil)
)

// Open creates a token store at the given database path using DefaultKey.
// The schema is created automatically on first use.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s, err := New(db, DefaultKey)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New creates a token store for key on an existing database handle.
// Close does not close a handle passed in here.
func New(db *sql.DB, key string) (*Store, error) {
	if key == "" {
		return nil, fmt.Errorf("token key cannot be empty")
	}
	s := &Store{db: db, key: key}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection if Open created it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cosynight_tokens (
		key        TEXT PRIMARY KEY,
		token      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadToken returns the stored token, or cosynight.ErrNoToken if the key
// has no record.
func (s *Store) LoadToken(ctx context.Context) (*cosynight.Token, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM cosynight_tokens WHERE key = ?`,
		s.key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: key %s", cosynight.ErrNoToken, s.key)
	}
	if err != nil {
		return nil, fmt.Errorf("load token %s: %w", s.key, err)
	}

	var tok cosynight.Token
	if err := json.Unmarshal([]byte(value), &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", s.key, err)
	}
	return &tok, nil
}

// SaveToken upserts the token record. The whole record is replaced in one
// statement.
func (s *Store) SaveToken(ctx context.Context, tok *cosynight.Token) error {
	if tok == nil {
		return fmt.Errorf("token cannot be nil")
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cosynight_tokens (key, token, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE
		 SET token = excluded.token, updated_at = excluded.updated_at`,
		s.key, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save token %s: %w", s.key, err)
	}
	return nil
}

// Delete removes the token record. No error is returned if there is none.
func (s *Store) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cosynight_tokens WHERE key = ?`,
		s.key,
	)
	if err != nil {
		return fmt.Errorf("delete token %s: %w", s.key, err)
	}
	return nil
}
