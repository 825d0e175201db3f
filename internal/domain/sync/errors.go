package sync

import "errors"

var (
	// ErrLockNotAcquired is returned when another run holds a valid lease.
	// This is expected contention avoidance, not a failure.
	ErrLockNotAcquired = errors.New("sync: lock not acquired, run already in progress")

	// ErrQuarantined is returned when a (tenant, entity type) pair has
	// reached the consecutive-failure threshold and requires an operator
	// reset before syncs resume
	ErrQuarantined = errors.New("sync: pair quarantined after repeated failures")

	// ErrInvalidEntityType is returned for unknown entity types
	ErrInvalidEntityType = errors.New("sync: invalid entity type")

	// ErrStateNotFound is returned when a sync state row is missing where
	// one was expected to exist
	ErrStateNotFound = errors.New("sync: state not found")

	// ErrQueueUnavailable is returned when a job cannot be enqueued
	ErrQueueUnavailable = errors.New("sync: job queue unavailable")
)
