package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"ralph-hq/ralph/pkg/auditlog"
)

// JSONLStorage stores audit cost records in an append-only JSONL file. Reads
// re-scan the file, which keeps the common path (append one record per stage)
// a single write. Retention operations rewrite the file.
type JSONLStorage struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewJSONLStorage creates a JSONL-backed storage at path. The file is created
// on first append.
func NewJSONLStorage(path string, logger *slog.Logger) *JSONLStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLStorage{path: path, logger: logger}
}

// Append appends a record to the log file.
func (s *JSONLStorage) Append(ctx context.Context, record *auditlog.CostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return auditlog.AppendJSONL(s.path, record)
}

// List returns all records in file order. A missing file is an empty log.
func (s *JSONLStorage) List(ctx context.Context) ([]*auditlog.CostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

// Count returns the number of records in the log.
func (s *JSONLStorage) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.readAll()
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

// DeleteOlderThan removes records recorded before cutoff. Records without a
// timestamp are kept: their age is unknown.
func (s *JSONLStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return 0, err
	}
	kept := records[:0]
	for _, record := range records {
		if record.RecordedAt.IsZero() || !record.RecordedAt.Before(cutoff) {
			kept = append(kept, record)
		}
	}
	deleted := int64(len(records) - len(kept))
	if deleted == 0 {
		return 0, nil
	}
	return deleted, s.rewrite(kept)
}

// DeleteOldest removes the n records at the head of the log.
func (s *JSONLStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return 0, nil
	}
	records, err := s.readAll()
	if err != nil {
		return 0, err
	}
	if n > int64(len(records)) {
		n = int64(len(records))
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.rewrite(records[n:])
}

// Close is a no-op; the file is opened per operation.
func (s *JSONLStorage) Close() error { return nil }

func (s *JSONLStorage) readAll() ([]*auditlog.CostRecord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()
	return auditlog.ReadJSONL(f, s.logger)
}

// rewrite replaces the log file with the given records via a temp file rename
// so a crash mid-rewrite cannot truncate the log.
func (s *JSONLStorage) rewrite(records []*auditlog.CostRecord) error {
	tmp := s.path + ".tmp"
	for _, record := range records {
		if err := auditlog.AppendJSONL(tmp, record); err != nil {
			os.Remove(tmp)
			return err
		}
	}
	if len(records) == 0 {
		if err := os.WriteFile(tmp, nil, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", tmp, err)
		}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
