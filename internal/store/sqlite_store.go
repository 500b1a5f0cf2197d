package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteTokenStore keeps provider tokens in a SQLite database so they
// survive restarts.
type SQLiteTokenStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteTokenStore(path string) *SQLiteTokenStore {
	return &SQLiteTokenStore{path: path}
}

func (s *SQLiteTokenStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return err
	}

	schema := `
CREATE TABLE IF NOT EXISTS provider_tokens (
  provider TEXT PRIMARY KEY,
  token TEXT NOT NULL,
  updated_unix INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteTokenStore) Get(ctx context.Context, provider string) (string, bool, error) {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return "", false, err
	}

	var token string
	err = db.QueryRowContext(ctx, `SELECT token FROM provider_tokens WHERE provider = ?`, normalizeProvider(provider)).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (s *SQLiteTokenStore) Set(ctx context.Context, provider, token string) error {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(
		ctx,
		`INSERT INTO provider_tokens(provider, token, updated_unix)
		 VALUES(?, ?, ?)
		 ON CONFLICT(provider) DO UPDATE SET
		   token=excluded.token,
		   updated_unix=excluded.updated_unix`,
		normalizeProvider(provider),
		token,
		time.Now().Unix(),
	)
	return err
}

func (s *SQLiteTokenStore) Delete(ctx context.Context, provider string) error {
	db, err := s.ensureDB(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM provider_tokens WHERE provider = ?`, normalizeProvider(provider))
	return err
}

func (s *SQLiteTokenStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteTokenStore) ensureDB(ctx context.Context) (*sql.DB, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("sqlite db not initialized")
	}
	return s.db, nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
