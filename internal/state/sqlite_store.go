package state

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

// SQLiteStore keeps the snapshot and the check history in SQLite.
// Use ":memory:" for an in-memory database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.StorageError("failed to open sqlite database").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.StorageError("failed to initialize sqlite schema").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		api_level INTEGER NOT NULL,
		download_url TEXT NOT NULL,
		checksum TEXT NOT NULL,
		kind TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		check_id TEXT NOT NULL,
		trigger_name TEXT NOT NULL,
		checked_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		total INTEGER NOT NULL,
		new_count INTEGER NOT NULL,
		real_count INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks(checked_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// Load returns the stored snapshot in saved order.
func (s *SQLiteStore) Load(ctx context.Context) ([]artifact.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, timestamp, api_level, download_url, checksum, kind FROM snapshot ORDER BY position")
	if err != nil {
		return nil, errors.StorageError("failed to query snapshot").
			WithCause(err).
			WithContext("path", s.path).
			Build()
	}
	defer func() { _ = rows.Close() }()

	records := []artifact.Record{}
	for rows.Next() {
		var r artifact.Record
		var kind string
		if err := rows.Scan(&r.Name, &r.Timestamp, &r.APILevel, &r.DownloadURL, &r.Checksum, &kind); err != nil {
			return nil, errors.StorageError("failed to scan snapshot row").WithCause(err).Build()
		}
		if err := r.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "persisted build has unknown kind").Fatal().Build()
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("failed to iterate snapshot").WithCause(err).Build()
	}
	return decodeRecords(records, s.path)
}

// Save replaces the snapshot in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, builds []artifact.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StorageError("failed to begin snapshot transaction").WithCause(err).Build()
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot"); err != nil {
		return errors.StorageError("failed to clear snapshot").WithCause(err).Build()
	}
	for i, d := range builds {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO snapshot (position, name, timestamp, api_level, download_url, checksum, kind) VALUES (?, ?, ?, ?, ?, ?, ?)",
			i, d.Name(), d.Timestamp(), d.APILevel(), d.DownloadURL(), d.Checksum(), d.Kind().String(),
		); err != nil {
			return errors.StorageError("failed to insert snapshot row").
				WithCause(err).
				WithContext("name", d.Name()).
				Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.StorageError("failed to commit snapshot").WithCause(err).Build()
	}
	return nil
}

// AppendCheck records the outcome of one check.
func (s *SQLiteStore) AppendCheck(ctx context.Context, rec CheckRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO checks (check_id, trigger_name, checked_at, outcome, total, new_count, real_count, skipped, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.CheckID, rec.Trigger, rec.CheckedAt.Unix(), rec.Outcome, rec.Total, rec.New, rec.Real, rec.Skipped, rec.Error,
	)
	if err != nil {
		return errors.StorageError("failed to record check").WithCause(err).Build()
	}
	return nil
}

// RecentChecks returns up to limit check records, newest first.
func (s *SQLiteStore) RecentChecks(ctx context.Context, limit int) ([]CheckRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT check_id, trigger_name, checked_at, outcome, total, new_count, real_count, skipped, COALESCE(error, '') FROM checks ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CheckRecord
	for rows.Next() {
		var rec CheckRecord
		var checkedAt int64
		if err := rows.Scan(&rec.CheckID, &rec.Trigger, &checkedAt, &rec.Outcome, &rec.Total, &rec.New, &rec.Real, &rec.Skipped, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		rec.CheckedAt = unixUTC(checkedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
