// Package queue implements the durable, at-least-once Postgres-backed job
// queue (spec.md §4.4): enqueue, claim with global/per-target concurrency
// caps, complete, fail-with-backoff, and cancel. Claiming uses
// SELECT ... FOR UPDATE SKIP LOCKED so concurrent workers never double-claim
// the same job, grounded directly on dist-job-scheduler's
// ScheduleRepository.ClaimAndFire transaction shape.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a Job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Type identifies the kind of work a Job performs. The pipeline's five
// stages run sequentially inside a single run_pipeline job; only the
// post-sweep re-checks are independently queued jobs.
type Type string

const (
	TypeRunPipeline   Type = "run_pipeline"
	TypeVerifyAsset   Type = "verify_asset"
	TypeVerifyService Type = "verify_service"
)

// Job is a single unit of queued work belonging to a Run.
type Job struct {
	ID             uuid.UUID
	RunID          uuid.UUID
	TargetID       uuid.UUID
	Type           Type
	Status         Status
	Payload        []byte // jsonb, stage-specific input
	Priority       int
	RetryCount     int
	MaxRetries     int
	NotBefore      time.Time // earliest time this job may be claimed (backoff)
	ClaimedBy      *string
	ClaimedAt      *time.Time
	CompletedAt    *time.Time
	LastError      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
