package retention

import (
	"context"
	"testing"
	"time"

	"ralph-hq/ralph/pkg/auditlog"
	"ralph-hq/ralph/pkg/auditlog/storage"
)

func seed(t *testing.T, store auditlog.Storage, ages ...time.Duration) {
	t.Helper()
	now := time.Now()
	for i, age := range ages {
		err := store.Append(context.Background(), &auditlog.CostRecord{
			RunID:      "run",
			Stage:      "auditor",
			DurationS:  float64(i),
			RecordedAt: now.Add(-age),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
}

func TestPrunerAgeBased(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 100*24*time.Hour, 10*24*time.Hour, time.Hour)

	pruner := NewPruner(store, &Config{RetentionDays: 30})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	count, _ := store.Count(context.Background())
	if count != 2 {
		t.Errorf("remaining = %d, want 2", count)
	}
}

func TestPrunerCountBased(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 4*time.Hour, 3*time.Hour, 2*time.Hour, time.Hour)

	pruner := NewPruner(store, &Config{MaxRecords: 2})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	records, _ := store.List(context.Background())
	if len(records) != 2 {
		t.Fatalf("remaining = %d, want 2", len(records))
	}
	// The oldest (first inserted) records are gone.
	if records[0].DurationS != 2 || records[1].DurationS != 3 {
		t.Errorf("wrong records survived: %+v", records)
	}
}

func TestPrunerZeroConfigKeepsEverything(t *testing.T) {
	store := storage.NewMemoryStorage()
	seed(t, store, 1000*24*time.Hour)

	pruner := NewPruner(store, &Config{})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestSchedulerRejectsInvalidSchedule(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{PruneSchedule: "not a cron"})
	scheduler := NewScheduler(pruner)
	if err := scheduler.Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want invalid schedule error")
		scheduler.Stop()
	}
}

func TestSchedulerEmptyScheduleDisabled(t *testing.T) {
	pruner := NewPruner(storage.NewMemoryStorage(), &Config{})
	scheduler := NewScheduler(pruner)
	if err := scheduler.Start(context.Background()); err != nil {
		t.Errorf("Start() error = %v, want nil for disabled scheduler", err)
	}
	scheduler.Stop()
}
