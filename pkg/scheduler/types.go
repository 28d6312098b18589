// Package scheduler implements the single-leader-free recurring-pipeline
// scheduler (spec.md §4.5): claim due schedules, fire a Run + initial Job,
// and advance next_run_at — all in one transaction, so no two replicas can
// double-fire the same schedule. Grounded directly on dist-job-scheduler's
// ScheduleRepository.ClaimAndFire.
package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// Schedule describes a recurring pipeline trigger for a Target.
type Schedule struct {
	ID          uuid.UUID
	TargetID    uuid.UUID
	IntervalSec int
	Paused      bool
	NextRunAt   time.Time
	LastRunAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
