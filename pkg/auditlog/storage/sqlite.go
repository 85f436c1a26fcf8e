package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"ralph-hq/ralph/pkg/auditlog"
)

// SQLiteStorage implements auditlog.Storage on a SQLite database. It uses WAL
// mode and a single writer connection, suitable for the append-heavy audit
// log workload.
type SQLiteStorage struct {
	db *sql.DB
}

// SQLiteConfig configures the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStorage opens (or creates) the audit log database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	return NewSQLiteStorageWithConfig(SQLiteConfig{Path: path})
}

// NewSQLiteStorageWithConfig opens the audit log database with custom
// configuration.
func NewSQLiteStorageWithConfig(cfg SQLiteConfig) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_costs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		duration_s REAL NOT NULL DEFAULT 0,
		cache_hit INTEGER NOT NULL DEFAULT 0,
		decision TEXT NOT NULL DEFAULT '',
		total_duration_s REAL NOT NULL DEFAULT 0,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_costs_recorded_at ON audit_costs(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_audit_costs_run_id ON audit_costs(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores a record.
func (s *SQLiteStorage) Append(ctx context.Context, record *auditlog.CostRecord) error {
	cacheHit := 0
	if record.CacheHit {
		cacheHit = 1
	}
	recordedAt := record.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_costs (run_id, stage, duration_s, cache_hit, decision, total_duration_s, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.RunID, record.Stage, record.DurationS, cacheHit,
		record.Decision, record.TotalDurationS, recordedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// List returns all stored records in insertion order.
func (s *SQLiteStorage) List(ctx context.Context) ([]*auditlog.CostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, stage, duration_s, cache_hit, decision, total_duration_s, recorded_at
		FROM audit_costs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*auditlog.CostRecord
	for rows.Next() {
		var record auditlog.CostRecord
		var cacheHit int
		var recordedAtMs int64
		if err := rows.Scan(&record.RunID, &record.Stage, &record.DurationS,
			&cacheHit, &record.Decision, &record.TotalDurationS, &recordedAtMs); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.CacheHit = cacheHit != 0
		record.RecordedAt = time.UnixMilli(recordedAtMs)
		records = append(records, &record)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_costs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes records recorded before cutoff.
func (s *SQLiteStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_costs WHERE recorded_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old records: %w", err)
	}
	return res.RowsAffected()
}

// DeleteOldest removes the n oldest records.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM audit_costs WHERE seq IN (
			SELECT seq FROM audit_costs ORDER BY seq LIMIT ?
		)`, n)
	if err != nil {
		return 0, fmt.Errorf("failed to delete oldest records: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
