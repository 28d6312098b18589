// Package run implements CRUD/listing and discard semantics for the Run
// entity (spec.md §3, SPEC_FULL §4.12).
package run

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a Run.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusDiscarded  Status = "discarded"
)

// Trigger records what caused a Run to start.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// Run is a single execution of the recon pipeline against a Target.
type Run struct {
	ID          uuid.UUID
	TargetID    uuid.UUID
	Status      Status
	Trigger     Trigger
	StartedAt   time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
