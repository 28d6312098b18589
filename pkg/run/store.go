package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corvidreef/reconwatch/internal/db"
	"github.com/corvidreef/reconwatch/pkg/queue"
	"github.com/corvidreef/reconwatch/pkg/reconerr"
)

const runColumns = `id, target_id, status, trigger, started_at, completed_at, created_at, updated_at`

// Store is the run's persistence layer.
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

// Create inserts a new manually-triggered Run plus its initial run_pipeline Job.
func (s *Store) Create(ctx context.Context, targetID uuid.UUID) (*Run, error) {
	var created *Run

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		runID := uuid.New()
		row := tx.QueryRow(ctx, `
			INSERT INTO runs (id, target_id, status, trigger, started_at, created_at, updated_at)
			VALUES ($1, $2, 'queued', 'manual', now(), now(), now())
			RETURNING `+runColumns,
			runID, targetID)

		r, err := scanRun(row)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO jobs (id, run_id, target_id, type, status, payload, priority,
				retry_count, max_retries, not_before, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'queued', '{}', 0, 0, 3, now(), now(), now())`,
			uuid.New(), runID, targetID, queue.TypeRunPipeline,
		); err != nil {
			return fmt.Errorf("insert initial job: %w", err)
		}

		created = r
		return nil
	})

	return created, err
}

// Get returns a Run by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, id)
	return scanRun(row)
}

// ListForTarget returns every Run for a target, most recent first.
func (s *Store) ListForTarget(ctx context.Context, targetID uuid.UUID) ([]*Run, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM runs WHERE target_id = $1 ORDER BY started_at DESC`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetStatus transitions a Run to a terminal status.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE runs SET status = $2, completed_at = now(), updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("set run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", id, reconerr.ErrNotFound)
	}
	return nil
}

// Discard marks a Run discarded and cancels every queued/running job
// belonging to it, in a single transaction (spec.md §5 cancellation
// semantics — "discarding a run").
func (s *Store) Discard(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE runs SET status = 'discarded', completed_at = now(), updated_at = now()
			WHERE id = $1 AND status IN ('queued', 'running')`, id)
		if err != nil {
			return fmt.Errorf("discard run: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("run %s: %w", id, reconerr.ErrNotFound)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE jobs SET status = 'cancelled', completed_at = now(), updated_at = now()
			WHERE run_id = $1 AND status IN ('queued', 'running')`, id); err != nil {
			return fmt.Errorf("cancel jobs for discarded run: %w", err)
		}

		return nil
	})
}

func scanRun(row pgx.Row) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.TargetID, &r.Status, &r.Trigger, &r.StartedAt, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconerr.ErrNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}
