package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/internal/telemetry"
	"github.com/corvidreef/reconwatch/pkg/queue"
	"github.com/corvidreef/reconwatch/pkg/reconerr"
)

const scheduleColumns = `id, target_id, interval_seconds, paused, next_run_at, last_run_at, created_at, updated_at`

// Store is the scheduler's persistence layer.
type Store struct {
	pool interface {
		db.Beginner
		db.DBTX
	}
}

// New creates a Store.
func New(pool interface {
	db.Beginner
	db.DBTX
}) *Store {
	return &Store{pool: pool}
}

// Create inserts a new recurring schedule for a target.
func (s *Store) Create(ctx context.Context, targetID uuid.UUID, intervalSec int) (*Schedule, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO schedules (id, target_id, interval_seconds, paused, next_run_at, created_at, updated_at)
		VALUES ($1, $2, $3, false, now() + ($3 || ' seconds')::interval, now(), now())
		RETURNING `+scheduleColumns,
		uuid.New(), targetID, intervalSec,
	)
	return scanSchedule(row)
}

// SetPaused pauses or resumes a schedule.
func (s *Store) SetPaused(ctx context.Context, id uuid.UUID, paused bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE schedules SET paused = $2, updated_at = now() WHERE id = $1`, id, paused)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", id, reconerr.ErrNotFound)
	}
	return nil
}

// FiredRun is the Run+Job pair produced by firing a due schedule.
type FiredRun struct {
	RunID    uuid.UUID
	TargetID uuid.UUID
	JobID    uuid.UUID
}

// ClaimAndFire atomically claims up to limit due, unpaused schedules,
// inserts a Run (status='queued', trigger='scheduled') and an initial
// run_pipeline Job for each, and advances next_run_at — all within one
// transaction via SELECT ... FOR UPDATE SKIP LOCKED, so concurrent
// scheduler instances never double-fire the same schedule (spec.md §4.5's
// crash-safety requirement; no distributed leader election needed).
func (s *Store) ClaimAndFire(ctx context.Context, limit int) ([]FiredRun, error) {
	var fired []FiredRun

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT `+scheduleColumns+`
			FROM schedules
			WHERE next_run_at <= now() AND NOT paused
			ORDER BY next_run_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, limit)
		if err != nil {
			return fmt.Errorf("claim due schedules: %w", err)
		}

		var due []*Schedule
		for rows.Next() {
			sch, scanErr := scanSchedule(rows)
			if scanErr != nil {
				rows.Close()
				return scanErr
			}
			due = append(due, sch)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate due schedules: %w", err)
		}

		for _, sch := range due {
			runID := uuid.New()
			if _, err := tx.Exec(ctx, `
				INSERT INTO runs (id, target_id, status, trigger, started_at, created_at, updated_at)
				VALUES ($1, $2, 'queued', 'scheduled', now(), now(), now())`,
				runID, sch.TargetID,
			); err != nil {
				return fmt.Errorf("insert run for schedule %s: %w", sch.ID, err)
			}

			jobID := uuid.New()
			payload, _ := json.Marshal(map[string]any{"schedule_id": sch.ID})
			if _, err := tx.Exec(ctx, `
				INSERT INTO jobs (id, run_id, target_id, type, status, payload, priority,
					retry_count, max_retries, not_before, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'queued', $5, 0, 0, 3, now(), now(), now())`,
				jobID, runID, sch.TargetID, queue.TypeRunPipeline, payload,
			); err != nil {
				return fmt.Errorf("insert initial job for schedule %s: %w", sch.ID, err)
			}

			if _, err := tx.Exec(ctx, `
				UPDATE schedules SET next_run_at = now() + ($2 || ' seconds')::interval, last_run_at = now(), updated_at = now()
				WHERE id = $1`,
				sch.ID, sch.IntervalSec,
			); err != nil {
				return fmt.Errorf("advance schedule %s: %w", sch.ID, err)
			}

			fired = append(fired, FiredRun{RunID: runID, TargetID: sch.TargetID, JobID: jobID})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for range fired {
		telemetry.SchedulerFiresTotal.Inc()
	}
	return fired, nil
}

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var sch Schedule
	err := row.Scan(&sch.ID, &sch.TargetID, &sch.IntervalSec, &sch.Paused,
		&sch.NextRunAt, &sch.LastRunAt, &sch.CreatedAt, &sch.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconerr.ErrNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return &sch, nil
}

// Run starts a ticking loop that calls ClaimAndFire every interval until ctx
// is cancelled — grounded on nightowl's pkg/roster/worker.go
// RunScheduleTopUpLoop ticker shape.
func Run(ctx context.Context, store *Store, logger *slog.Logger, interval time.Duration, limit int, onFire func(FiredRun)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := func() {
		fired, err := store.ClaimAndFire(ctx, limit)
		if err != nil {
			logger.Error("claim and fire due schedules", "error", err)
			return
		}
		for _, f := range fired {
			if onFire != nil {
				onFire(f)
			}
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
