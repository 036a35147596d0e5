// Package history keeps a SQLite-backed record of synthesis requests
// and batch runs so past activity can be listed per user.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/speechfoundry/chorus/internal/config"
	_ "modernc.org/sqlite"
)

// Request is one recorded synthesis call.
type Request struct {
	ID          int64
	RequestID   string
	UserID      string
	Kind        string // text, ssml, document, batch
	TextLength  int
	VoiceName   string
	Language    string
	Encoding    string
	Status      string // success, failure
	ErrorKind   string
	Locator     string
	DurationSec float64
	CreatedAt   time.Time
}

// Run is one recorded batch run with its aggregate counts.
type Run struct {
	ID        int64
	RunID     string
	UserID    string
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	LogPath   string
	CreatedAt time.Time
}

// Store wraps the SQLite request history. When history is disabled the
// store is a no-op and every method returns immediately.
type Store struct {
	db    *sql.DB
	cfg   config.HistoryConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the history store according to config.
func Open(ctx context.Context, cfg config.HistoryConfig, log *slog.Logger) (*Store, error) {
	log = log.With(slog.String("component", "history"))
	if !cfg.Enabled {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("history prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    text_length INTEGER NOT NULL,
    voice_name TEXT,
    language TEXT,
    encoding TEXT,
    status TEXT NOT NULL,
    error_kind TEXT,
    locator TEXT,
    duration_sec REAL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_user_created ON requests(user_id, created_at);
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    total INTEGER NOT NULL,
    succeeded INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    log_path TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_user_created ON runs(user_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRequest appends one synthesis call to the history.
func (s *Store) RecordRequest(ctx context.Context, req Request) error {
	if !s.cfg.Enabled || s.db == nil {
		return nil
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests(request_id, user_id, kind, text_length, voice_name, language, encoding, status, error_kind, locator, duration_sec, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.RequestID, req.UserID, req.Kind, req.TextLength, req.VoiceName, req.Language,
		req.Encoding, req.Status, req.ErrorKind, req.Locator, req.DurationSec, req.CreatedAt)
	return err
}

// RecordRun appends one batch run summary to the history.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if !s.cfg.Enabled || s.db == nil {
		return nil
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, user_id, total, succeeded, failed, skipped, log_path, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET total=excluded.total, succeeded=excluded.succeeded,
		 failed=excluded.failed, skipped=excluded.skipped, log_path=excluded.log_path`,
		run.RunID, run.UserID, run.Total, run.Succeeded, run.Failed, run.Skipped, run.LogPath, run.CreatedAt)
	return err
}

// ListRequests returns up to limit requests for a user, newest first.
func (s *Store) ListRequests(ctx context.Context, userID string, limit int) ([]Request, error) {
	if !s.cfg.Enabled || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, user_id, kind, text_length, voice_name, language, encoding, status, error_kind, locator, duration_sec, created_at
		 FROM requests WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []Request
	for rows.Next() {
		var r Request
		var created string
		if err := rows.Scan(&r.ID, &r.RequestID, &r.UserID, &r.Kind, &r.TextLength, &r.VoiceName,
			&r.Language, &r.Encoding, &r.Status, &r.ErrorKind, &r.Locator, &r.DurationSec, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = ts
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// ListRuns returns up to limit batch runs for a user, newest first.
func (s *Store) ListRuns(ctx context.Context, userID string, limit int) ([]Run, error) {
	if !s.cfg.Enabled || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, user_id, total, succeeded, failed, skipped, log_path, created_at
		 FROM runs WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.RunID, &r.UserID, &r.Total, &r.Succeeded, &r.Failed,
			&r.Skipped, &r.LogPath, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = ts
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Prune applies retention by age and by request count.
func (s *Store) Prune(ctx context.Context) error {
	if !s.cfg.Enabled || s.db == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour).UTC()
		if _, err = tx.ExecContext(ctx, `DELETE FROM requests WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
	}
	if s.cfg.MaxRequests > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM requests WHERE id IN (
			SELECT id FROM requests ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxRequests)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}
