// Package cache persists finished lint reports keyed by manifest content,
// so repeated checks of an unchanged file skip the rule engine.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iparrondo/eeg-models/internal/lint"
)

// Store is a SQLite-backed report cache. database/sql serializes access, so
// a Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

var _ lint.Cache = (*Store)(nil)

// Open opens or creates the cache database at path and applies the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	key        TEXT PRIMARY KEY,
	report     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating cache schema: %w", err)
	}
	return nil
}

// Get returns the cached report for key, if any.
func (s *Store) Get(ctx context.Context, key string) (*lint.Report, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM reports WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}
	var rep lint.Report
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		return nil, false, fmt.Errorf("decoding cached report: %w", err)
	}
	return &rep, true, nil
}

// Put stores a report under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, rep *lint.Report) error {
	raw, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (key, report, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET report = excluded.report, created_at = excluded.created_at`,
		key, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Prune deletes entries created before now minus olderThan and reports how
// many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
