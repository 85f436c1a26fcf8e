// Package auditlog records and reports the cost of audit runs.
//
// Every kernel-driven audit emits one CostRecord per pipeline stage plus a
// final "complete" record carrying the decision and total duration. Records
// land in an append-only JSONL file or a storage backend, and the report
// aggregates them into percentile statistics per stage.
package auditlog

import (
	"context"
	"time"
)

// StageComplete marks the final record of a run; it carries the decision and
// the total duration instead of a stage duration.
const StageComplete = "complete"

// StageOrder is the fixed pipeline stage order used in reports.
var StageOrder = []string{
	"contract_digest",
	"plan_digest",
	"roadmap_digest",
	"slice_prepare",
	"auditor",
}

// CostRecord is a single audit cost measurement.
type CostRecord struct {
	RunID string `json:"run_id"`
	Stage string `json:"stage"`

	// DurationS is the stage duration in seconds. Unset on "complete"
	// records.
	DurationS float64 `json:"duration_s,omitempty"`

	// CacheHit reports whether the stage was served from cache.
	CacheHit bool `json:"cache_hit,omitempty"`

	// Decision and TotalDurationS are set only on "complete" records.
	Decision       string  `json:"decision,omitempty"`
	TotalDurationS float64 `json:"total_duration_s,omitempty"`

	// RecordedAt is when the record was written. Used for retention.
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// Storage persists audit cost records.
type Storage interface {
	// Append stores a record.
	Append(ctx context.Context, record *CostRecord) error

	// List returns all stored records in insertion order.
	List(ctx context.Context) ([]*CostRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteOlderThan removes records recorded before cutoff and returns
	// how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the n oldest records and returns how many were
	// deleted.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Close releases storage resources.
	Close() error
}
