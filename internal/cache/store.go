// Package cache persists sandbox submissions and run reports in SQLite so
// identical bundles are not uploaded twice.
package cache

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sandboxer/internal/models"
)

// Entry is a cached submission.
type Entry struct {
	BundleHash string
	Result     models.SubmissionResult
	CreatedAt  time.Time
}

// Store implements the submission cache and run history on SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the database at dbPath. Use ":memory:" for an
// in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		bundle_hash TEXT PRIMARY KEY,
		viewer_url TEXT NOT NULL,
		raw_identifier TEXT NOT NULL,
		http_status INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at);
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		framework TEXT NOT NULL,
		outcome TEXT NOT NULL,
		bundle_hash TEXT,
		finished_at INTEGER NOT NULL,
		report BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the entry for hash if it is younger than ttl.
func (s *Store) Get(ctx context.Context, hash string, ttl time.Duration) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		e       Entry
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT bundle_hash, viewer_url, raw_identifier, http_status, created_at FROM submissions WHERE bundle_hash = ?",
		hash,
	).Scan(&e.BundleHash, &e.Result.ViewerURL, &e.Result.RawIdentifier, &e.Result.HTTPStatus, &created)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query submission: %w", err)
	}
	e.CreatedAt = time.Unix(created, 0)
	if ttl > 0 && s.now().Sub(e.CreatedAt) > ttl {
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores a successful submission for hash.
func (s *Store) Put(ctx context.Context, hash string, res models.SubmissionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (bundle_hash, viewer_url, raw_identifier, http_status, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(bundle_hash) DO UPDATE SET viewer_url = excluded.viewer_url,
		   raw_identifier = excluded.raw_identifier, http_status = excluded.http_status,
		   created_at = excluded.created_at`,
		hash, res.ViewerURL, res.RawIdentifier, res.HTTPStatus, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// RecordRun stores a finished run report.
func (s *Store) RecordRun(ctx context.Context, r *models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO runs (run_id, framework, outcome, bundle_hash, finished_at, report) VALUES (?, ?, ?, ?, ?, ?)",
		r.RunID, string(r.Framework), string(r.Outcome), r.BundleHash, r.End.Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Runs returns up to limit reports, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT report FROM runs ORDER BY finished_at DESC, run_id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var r models.Report
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Prune deletes submissions and runs older than maxAge and returns the
// number of rows removed.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge).Unix()
	var total int64
	for _, q := range []string{
		"DELETE FROM submissions WHERE created_at < ?",
		"DELETE FROM runs WHERE finished_at < ?",
	} {
		res, err := s.db.ExecContext(ctx, q, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
