package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/internal/telemetry"
	"github.com/corvidreef/reconwatch/pkg/reconerr"
)

const jobColumns = `id, run_id, target_id, type, status, payload, priority,
	retry_count, max_retries, not_before, claimed_by, claimed_at,
	completed_at, last_error, created_at, updated_at`

// Store is the job queue's persistence layer. It is given a DBTX for plain
// reads/writes and a Beginner for the claim transaction, so the same Store
// works whether it sits atop a bare pool or an in-flight transaction.
type Store struct {
	pool db.Beginner
	rw   db.DBTX
}

// New creates a Store. pool must also satisfy db.DBTX (true of *pgxpool.Pool).
func New(pool interface {
	db.Beginner
	db.DBTX
}) *Store {
	return &Store{pool: pool, rw: pool}
}

// EnqueueParams describes a new job to insert.
type EnqueueParams struct {
	RunID      uuid.UUID
	TargetID   uuid.UUID
	Type       Type
	Payload    []byte
	Priority   int
	MaxRetries int
}

// Enqueue inserts a new queued job.
func (s *Store) Enqueue(ctx context.Context, p EnqueueParams) (*Job, error) {
	row := s.rw.QueryRow(ctx, `
		INSERT INTO jobs (id, run_id, target_id, type, status, payload, priority,
			retry_count, max_retries, not_before, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'queued', $5, $6, 0, $7, now(), now(), now())
		RETURNING `+jobColumns,
		uuid.New(), p.RunID, p.TargetID, p.Type, p.Payload, p.Priority, p.MaxRetries,
	)

	j, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	telemetry.JobsEnqueuedTotal.WithLabelValues(string(p.Type)).Inc()
	return j, nil
}

// ClaimNext atomically claims the highest-priority queued job that respects
// both the global and per-target concurrency caps, in one transaction —
// grounded on dist-job-scheduler's ClaimAndFire shape. Returns
// (nil, nil) when no claimable job exists.
func (s *Store) ClaimNext(ctx context.Context, workerID string, globalCap, perTargetCap int) (*Job, error) {
	var claimed *Job

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var runningGlobal int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM jobs WHERE status = 'running'`,
		).Scan(&runningGlobal); err != nil {
			return fmt.Errorf("count running jobs: %w", err)
		}
		if runningGlobal >= globalCap {
			return nil
		}

		rows, err := tx.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE status = 'queued' AND not_before <= now()
				AND target_id NOT IN (
					SELECT target_id FROM jobs WHERE status = 'running'
					GROUP BY target_id HAVING count(*) >= $1
				)
			ORDER BY priority DESC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED`, perTargetCap)
		if err != nil {
			return fmt.Errorf("claim candidates: %w", err)
		}

		var candidate *Job
		if rows.Next() {
			candidate, err = scanJob(rows)
		}
		rows.Close()
		if err != nil {
			return err
		}
		if candidate == nil {
			return nil
		}

		row := tx.QueryRow(ctx, `
			UPDATE jobs SET status = 'running', claimed_by = $2, claimed_at = now(), updated_at = now()
			WHERE id = $1
			RETURNING `+jobColumns,
			candidate.ID, workerID,
		)
		claimed, err = scanJob(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	if claimed != nil {
		telemetry.JobsClaimedTotal.WithLabelValues(string(claimed.Type)).Inc()
	}
	return claimed, nil
}

// Complete marks a job succeeded.
func (s *Store) Complete(ctx context.Context, jobID uuid.UUID) error {
	tag, err := s.rw.Exec(ctx, `
		UPDATE jobs SET status = 'succeeded', completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'running'`, jobID)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("complete job %s: %w", jobID, reconerr.ErrNotFound)
	}
	telemetry.JobsCompletedTotal.WithLabelValues("", "succeeded").Inc()
	return nil
}

// Fail records a failed attempt. If retry_count has reached max_retries the
// job moves to 'failed' terminally; otherwise it's requeued with not_before
// pushed out by backoff (exponential, caller-supplied).
func (s *Store) Fail(ctx context.Context, jobID uuid.UUID, cause string, backoff time.Duration) error {
	tag, err := s.rw.Exec(ctx, `
		UPDATE jobs SET
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'queued' END,
			retry_count = retry_count + 1,
			not_before = now() + $3::interval,
			last_error = $2,
			completed_at = CASE WHEN retry_count + 1 >= max_retries THEN now() ELSE completed_at END,
			updated_at = now()
		WHERE id = $1 AND status = 'running'`,
		jobID, cause, backoff.String())
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fail job %s: %w", jobID, reconerr.ErrNotFound)
	}
	telemetry.JobsCompletedTotal.WithLabelValues("", "failed").Inc()
	return nil
}

// Cancel marks a single queued or running job cancelled.
func (s *Store) Cancel(ctx context.Context, jobID uuid.UUID) error {
	tag, err := s.rw.Exec(ctx, `
		UPDATE jobs SET status = 'cancelled', completed_at = now(), updated_at = now()
		WHERE id = $1 AND status IN ('queued', 'running')`, jobID)
	if err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cancel job %s: %w", jobID, reconerr.ErrNotFound)
	}
	return nil
}

// CancelAllForRun cancels every queued/running job belonging to runID.
// run.Store.Discard does not call it: it cancels the run's jobs with its own
// statement inside the discard transaction.
func (s *Store) CancelAllForRun(ctx context.Context, runID uuid.UUID) error {
	_, err := s.rw.Exec(ctx, `
		UPDATE jobs SET status = 'cancelled', completed_at = now(), updated_at = now()
		WHERE run_id = $1 AND status IN ('queued', 'running')`, runID)
	if err != nil {
		return fmt.Errorf("cancel jobs for run %s: %w", runID, err)
	}
	return nil
}

// RecoverCrashed fails every Job, Run, and Scan left 'running' at process
// startup, in one transaction — the crash-recovery sweep spec.md §4.9
// requires across all three tables, since a 'running' row with no live
// worker can never complete, heartbeat, or otherwise reach a terminal
// status on its own. Idempotent: only rows still 'running' match, so a
// repeat call (e.g. a second crash before any job was claimed) affects zero
// rows.
func (s *Store) RecoverCrashed(ctx context.Context) (int64, error) {
	var total int64

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE jobs SET status = 'failed', last_error = 'recovered at startup: worker crashed',
				completed_at = now(), updated_at = now()
			WHERE status = 'running'`)
		if err != nil {
			return fmt.Errorf("recover crashed jobs: %w", err)
		}
		total += tag.RowsAffected()

		tag, err = tx.Exec(ctx, `
			UPDATE runs SET status = 'failed', completed_at = now(), updated_at = now()
			WHERE status = 'running'`)
		if err != nil {
			return fmt.Errorf("recover crashed runs: %w", err)
		}
		total += tag.RowsAffected()

		tag, err = tx.Exec(ctx, `
			UPDATE scans SET status = 'failed', completed_at = now()
			WHERE status = 'running'`)
		if err != nil {
			return fmt.Errorf("recover crashed scans: %w", err)
		}
		total += tag.RowsAffected()

		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Backoff computes the exponential retry delay for a job's retryCount,
// capped at 1 hour, matching the job-queue's retry-with-backoff contract
// (spec.md §4.4).
func Backoff(retryCount int) time.Duration {
	d := time.Duration(1<<uint(retryCount)) * time.Second
	const max = time.Hour
	if d > max || d <= 0 {
		return max
	}
	return d
}

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.RunID, &j.TargetID, &j.Type, &j.Status, &j.Payload, &j.Priority,
		&j.RetryCount, &j.MaxRetries, &j.NotBefore, &j.ClaimedBy, &j.ClaimedAt,
		&j.CompletedAt, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconerr.ErrNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}
