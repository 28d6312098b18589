// Package retention implements the hourly purge sweep spec.md §6 describes:
// null out raw_output past its retention window, then delete scans and
// terminal runs past theirs. Grounded on pkg/scheduler.Run's ticker/tick
// shape, applied to a single sweep instead of a claim-and-fire loop.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corvidreef/reconwatch/internal/db"
)

// Store is the retention sweep's persistence layer.
type Store struct {
	rw db.DBTX
}

// New creates a Store.
func New(rw db.DBTX) *Store {
	return &Store{rw: rw}
}

// Result reports how many rows each part of the sweep affected.
type Result struct {
	RawOutputsCleared int64
	ScansDeleted      int64
	RunsDeleted       int64
}

// Sweep applies the three-part retention policy (spec.md §6): raw_output is
// nulled on scans older than rawOutputDays regardless of status; scans and
// terminal (succeeded/failed/cancelled/discarded) runs older than
// completedRunsDays are deleted outright. Deleting a run cascades to its
// jobs and scans (migrations/000002); findings and run_events survive with
// run_id set to NULL.
func (s *Store) Sweep(ctx context.Context, rawOutputDays, completedRunsDays int) (Result, error) {
	var res Result

	tag, err := s.rw.Exec(ctx, `
		UPDATE scans SET raw_output = NULL
		WHERE raw_output IS NOT NULL AND created_at < now() - ($1 || ' days')::interval`,
		rawOutputDays)
	if err != nil {
		return res, fmt.Errorf("clearing raw output: %w", err)
	}
	res.RawOutputsCleared = tag.RowsAffected()

	tag, err = s.rw.Exec(ctx, `
		DELETE FROM scans
		WHERE status IN ('completed', 'failed') AND created_at < now() - ($1 || ' days')::interval`,
		completedRunsDays)
	if err != nil {
		return res, fmt.Errorf("deleting old scans: %w", err)
	}
	res.ScansDeleted = tag.RowsAffected()

	tag, err = s.rw.Exec(ctx, `
		DELETE FROM runs
		WHERE status IN ('succeeded', 'failed', 'cancelled', 'discarded')
			AND updated_at < now() - ($1 || ' days')::interval`,
		completedRunsDays)
	if err != nil {
		return res, fmt.Errorf("deleting old runs: %w", err)
	}
	res.RunsDeleted = tag.RowsAffected()

	return res, nil
}

// Run ticks the sweep on interval until ctx is cancelled, logging each
// sweep's result. Mirrors pkg/scheduler.Run's ticker/tick shape.
func Run(ctx context.Context, store *Store, logger *slog.Logger, interval time.Duration, rawOutputDays, completedRunsDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := func() {
		res, err := store.Sweep(ctx, rawOutputDays, completedRunsDays)
		if err != nil {
			logger.Error("retention sweep", "error", err)
			return
		}
		if res.RawOutputsCleared > 0 || res.ScansDeleted > 0 || res.RunsDeleted > 0 {
			logger.Info("retention sweep complete",
				"raw_outputs_cleared", res.RawOutputsCleared,
				"scans_deleted", res.ScansDeleted,
				"runs_deleted", res.RunsDeleted)
		}
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
