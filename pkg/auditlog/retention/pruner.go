// Package retention enforces retention policies on the audit cost log.
package retention

import (
	"context"
	"log/slog"
	"time"

	"ralph-hq/ralph/pkg/auditlog"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain records.
	// 0 means keep records forever (no age-based pruning).
	RetentionDays int

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a cron expression for scheduled pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the scheduler.
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		MaxRecords:    0,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention policy on audit cost records.
type Pruner struct {
	storage auditlog.Storage
	config  *Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(storage auditlog.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "auditlog.retention"),
		now:     time.Now,
	}
}

// Prune deletes records violating the retention policy and returns how many
// were removed. Age-based pruning runs first, then count-based pruning trims
// the oldest records above MaxRecords.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.storage.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return total, err
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		count, err := p.storage.Count(ctx)
		if err != nil {
			return total, err
		}
		if excess := count - p.config.MaxRecords; excess > 0 {
			deleted, err := p.storage.DeleteOldest(ctx, excess)
			if err != nil {
				return total, err
			}
			total += deleted
		}
	}

	if total > 0 {
		p.logger.Info("pruned audit cost records", "deleted", total)
	}
	return total, nil
}
