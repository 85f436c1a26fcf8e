package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder writes the cost records of a single audit run. Each run gets a
// UUID run id so its stage records can be correlated later.
type Recorder struct {
	storage Storage
	runID   string
	started time.Time
	now     func() time.Time
}

// NewRecorder starts a new run against storage.
func NewRecorder(storage Storage) *Recorder {
	return newRecorder(storage, time.Now)
}

func newRecorder(storage Storage, now func() time.Time) *Recorder {
	return &Recorder{
		storage: storage,
		runID:   uuid.New().String(),
		started: now(),
		now:     now,
	}
}

// RunID returns the run identifier.
func (r *Recorder) RunID() string { return r.runID }

// RecordStage stores one stage measurement.
func (r *Recorder) RecordStage(ctx context.Context, stage string, duration time.Duration, cacheHit bool) error {
	return r.storage.Append(ctx, &CostRecord{
		RunID:      r.runID,
		Stage:      stage,
		DurationS:  duration.Seconds(),
		CacheHit:   cacheHit,
		RecordedAt: r.now(),
	})
}

// Complete stores the final record of the run with its decision and the total
// elapsed time since the recorder was created.
func (r *Recorder) Complete(ctx context.Context, decision string) error {
	return r.storage.Append(ctx, &CostRecord{
		RunID:          r.runID,
		Stage:          StageComplete,
		Decision:       decision,
		TotalDurationS: r.now().Sub(r.started).Seconds(),
		RecordedAt:     r.now(),
	})
}
