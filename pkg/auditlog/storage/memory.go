// Package storage provides audit cost record persistence backends.
package storage

import (
	"context"
	"sync"
	"time"

	"ralph-hq/ralph/pkg/auditlog"
)

// MemoryStorage implements auditlog.Storage with an in-memory slice. It is
// intended for tests and short-lived runs.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*auditlog.CostRecord
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Append stores a copy of record.
func (s *MemoryStorage) Append(ctx context.Context, record *auditlog.CostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recordCopy := *record
	s.records = append(s.records, &recordCopy)
	return nil
}

// List returns copies of all stored records in insertion order.
func (s *MemoryStorage) List(ctx context.Context) ([]*auditlog.CostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*auditlog.CostRecord, 0, len(s.records))
	for _, record := range s.records {
		recordCopy := *record
		out = append(out, &recordCopy)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *MemoryStorage) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// DeleteOlderThan removes records recorded before cutoff.
func (s *MemoryStorage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	var deleted int64
	for _, record := range s.records {
		if record.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return deleted, nil
}

// DeleteOldest removes the n oldest records (insertion order).
func (s *MemoryStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		return 0, nil
	}
	if n > int64(len(s.records)) {
		n = int64(len(s.records))
	}
	s.records = append([]*auditlog.CostRecord(nil), s.records[n:]...)
	return n, nil
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error { return nil }
