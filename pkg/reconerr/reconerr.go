// Package reconerr defines the sentinel errors shared across the recon
// platform's domain packages, checked with errors.Is per the teacher's
// fmt.Errorf("...: %w", err) wrapping convention.
package reconerr

import "errors"

var (
	// ErrScopeViolation is returned when a discovered asset or service falls
	// outside a target's configured scope (allowed domains/CIDRs, excluded
	// patterns).
	ErrScopeViolation = errors.New("outside target scope")

	// ErrInvariantViolation is returned when an operation would violate a
	// data-model invariant (e.g. an illegal lifecycle-status transition).
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrCancelled is returned by pipeline and job-queue operations when the
	// enclosing run or job has been cancelled or discarded.
	ErrCancelled = errors.New("cancelled")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
