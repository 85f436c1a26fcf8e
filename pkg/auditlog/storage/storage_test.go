package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ralph-hq/ralph/pkg/auditlog"
)

// backends exercised by the shared conformance tests below.
func testBackends(t *testing.T) map[string]auditlog.Storage {
	t.Helper()
	dir := t.TempDir()
	sqliteStore, err := NewSQLiteStorage(filepath.Join(dir, "audit_costs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	return map[string]auditlog.Storage{
		"memory": NewMemoryStorage(),
		"jsonl":  NewJSONLStorage(filepath.Join(dir, "audit_costs.jsonl"), nil),
		"sqlite": sqliteStore,
	}
}

func record(runID, stage string, recordedAt time.Time) *auditlog.CostRecord {
	return &auditlog.CostRecord{
		RunID:      runID,
		Stage:      stage,
		DurationS:  1.5,
		RecordedAt: recordedAt,
	}
}

func TestStorageAppendListCount(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			if err := store.Append(ctx, record("r1", "auditor", now)); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if err := store.Append(ctx, record("r2", "contract_digest", now)); err != nil {
				t.Fatalf("Append() error = %v", err)
			}

			records, err := store.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("List() = %d records, want 2", len(records))
			}
			if records[0].RunID != "r1" || records[1].RunID != "r2" {
				t.Errorf("insertion order lost: [%s, %s]", records[0].RunID, records[1].RunID)
			}
			if records[0].Stage != "auditor" || records[0].DurationS != 1.5 {
				t.Errorf("record fields lost: %+v", records[0])
			}

			count, err := store.Count(ctx)
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if count != 2 {
				t.Errorf("Count() = %d, want 2", count)
			}
		})
	}
}

func TestStorageDeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			store.Append(ctx, record("old", "auditor", now.Add(-48*time.Hour)))
			store.Append(ctx, record("new", "auditor", now))

			deleted, err := store.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
			if err != nil {
				t.Fatalf("DeleteOlderThan() error = %v", err)
			}
			if deleted != 1 {
				t.Errorf("deleted = %d, want 1", deleted)
			}

			records, _ := store.List(ctx)
			if len(records) != 1 || records[0].RunID != "new" {
				t.Errorf("surviving records = %+v, want only the new one", records)
			}
		})
	}
}

func TestStorageDeleteOldest(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for name, store := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			for _, id := range []string{"r1", "r2", "r3"} {
				store.Append(ctx, record(id, "auditor", now))
			}

			deleted, err := store.DeleteOldest(ctx, 2)
			if err != nil {
				t.Fatalf("DeleteOldest() error = %v", err)
			}
			if deleted != 2 {
				t.Errorf("deleted = %d, want 2", deleted)
			}

			records, _ := store.List(ctx)
			if len(records) != 1 || records[0].RunID != "r3" {
				t.Errorf("surviving records = %+v, want only r3", records)
			}

			// Deleting more than exists removes what remains, no error.
			deleted, err = store.DeleteOldest(ctx, 10)
			if err != nil {
				t.Fatalf("DeleteOldest() error = %v", err)
			}
			if deleted != 1 {
				t.Errorf("deleted = %d, want 1", deleted)
			}
		})
	}
}

func TestJSONLStorageMissingFileIsEmpty(t *testing.T) {
	store := NewJSONLStorage(filepath.Join(t.TempDir(), "missing.jsonl"), nil)
	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("List() = %d records, want 0", len(records))
	}
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}
}

func TestJSONLStorageKeepsUntimestampedOnAgePrune(t *testing.T) {
	ctx := context.Background()
	store := NewJSONLStorage(filepath.Join(t.TempDir(), "audit.jsonl"), nil)

	store.Append(ctx, &auditlog.CostRecord{RunID: "legacy", Stage: "auditor"})
	deleted, err := store.DeleteOlderThan(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0 (unknown age is kept)", deleted)
	}
}
