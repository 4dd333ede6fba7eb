package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/casewatch/internal/model"
)

// maxCycleRuns bounds the cycle log; older rows are deleted on insert.
const maxCycleRuns = 1000

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db    *sqlx.DB
	retry retryConfig
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, retry: defaultRetryConfig}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// GetValue returns the value stored under key, or ErrNotFound.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting setting %q: %w", key, err)
	}
	return value, nil
}

// PutValue replaces the value stored under key.
func (s *SQLiteStore) PutValue(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	err := retryOp(ctx, s.retry, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, time.Now().UTC(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("putting setting %q: %w", key, err)
	}
	return nil
}

// cycleRow mirrors a cycle_runs row.
type cycleRow struct {
	Seq           uint64    `db:"seq"`
	StartedAt     time.Time `db:"started_at"`
	DurationMS    int64     `db:"duration_ms"`
	Trigger       string    `db:"trigger_signal"`
	Alerts        int       `db:"alerts"`
	Cases         int       `db:"cases"`
	Notifications int       `db:"notifications"`
	Unread        int       `db:"unread"`
	AlertsError   string    `db:"alerts_error"`
	CasesError    string    `db:"cases_error"`
	Stale         int       `db:"stale"`
}

// RecordCycle appends a cycle to the log and trims it to maxCycleRuns rows.
func (s *SQLiteStore) RecordCycle(ctx context.Context, rec model.CycleRecord) error {
	err := retryOp(ctx, s.retry, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO cycle_runs (
				seq, started_at, duration_ms, trigger_signal,
				alerts, cases, notifications, unread,
				alerts_error, cases_error, stale
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Seq, rec.StartedAt.UTC(), rec.Duration.Milliseconds(), string(rec.Trigger),
			rec.Alerts, rec.Cases, rec.Notifications, rec.Unread,
			rec.AlertsError, rec.CasesError, boolToInt(rec.Stale),
		)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM cycle_runs WHERE id NOT IN (
				SELECT id FROM cycle_runs ORDER BY id DESC LIMIT ?
			)`, maxCycleRuns)
		if err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("recording cycle %d: %w", rec.Seq, err)
	}
	return nil
}

// RecentCycles returns up to limit cycles, newest first.
func (s *SQLiteStore) RecentCycles(ctx context.Context, limit int) ([]model.CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []cycleRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT seq, started_at, duration_ms, trigger_signal,
			alerts, cases, notifications, unread,
			alerts_error, cases_error, stale
		FROM cycle_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cycle runs: %w", err)
	}

	records := make([]model.CycleRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.CycleRecord{
			Seq:           r.Seq,
			StartedAt:     r.StartedAt,
			Duration:      time.Duration(r.DurationMS) * time.Millisecond,
			Trigger:       model.Signal(r.Trigger),
			Alerts:        r.Alerts,
			Cases:         r.Cases,
			Notifications: r.Notifications,
			Unread:        r.Unread,
			AlertsError:   r.AlertsError,
			CasesError:    r.CasesError,
			Stale:         r.Stale != 0,
		})
	}
	return records, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
