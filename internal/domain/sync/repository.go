package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateRepository is the persistence contract for sync state rows.
//
// The plain progress operations (GetOrCreate, UpdateCursor, UpdateMetrics,
// resets) carry no policy; lock policy lives in the application-layer lock
// manager, which composes the atomic operations below. AcquireLock must be
// implemented as a single conditional update against the shared store (a
// compare-and-swap, not a read-then-write) so that two workers racing on the
// same row cannot both succeed.
type StateRepository interface {
	// GetOrCreate returns the state row for the pair, creating the idle
	// baseline row on first reference. Idempotent.
	GetOrCreate(ctx context.Context, tenantID uuid.UUID, entityType EntityType) (*State, error)

	// Get returns the state row, or ErrStateNotFound
	Get(ctx context.Context, tenantID uuid.UUID, entityType EntityType) (*State, error)

	// ListForTenant returns all state rows for a tenant
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]State, error)

	// UpdateCursor persists pagination progress mid-run. Called once per
	// page; lastSyncedID is only meaningful for ID-paginated entity types
	// and may be empty.
	UpdateCursor(ctx context.Context, tenantID uuid.UUID, entityType EntityType, cursor, lastSyncedID string) error

	// UpdateMetrics accumulates TotalRecordsSynced and overwrites
	// LastRunRecords with the count of this run
	UpdateMetrics(ctx context.Context, tenantID uuid.UUID, entityType EntityType, recordsThisRun int64) error

	// AcquireLock attempts the conditional lease acquisition:
	// is_locked=false -> is_locked=true, status=running, lease window set.
	// Returns false with no error when the row is already locked.
	AcquireLock(ctx context.Context, tenantID uuid.UUID, entityType EntityType, now time.Time, ttl time.Duration) (bool, error)

	// ForceAcquireLock overwrites the lock fields unconditionally. Used only
	// for stale-lock takeover after the lease window has passed.
	ForceAcquireLock(ctx context.Context, tenantID uuid.UUID, entityType EntityType, now time.Time, ttl time.Duration) error

	// ReleaseLockSuccess clears the lock, marks the run completed, resets
	// the failure counter and clears the last error
	ReleaseLockSuccess(ctx context.Context, tenantID uuid.UUID, entityType EntityType, now time.Time) error

	// ReleaseLockFailure clears the lock, marks the run failed, records the
	// error message and increments the failure counter
	ReleaseLockFailure(ctx context.Context, tenantID uuid.UUID, entityType EntityType, now time.Time, errMsg string) error

	// ResetFailures is the administrative recovery for one pair: clears the
	// lock unconditionally, zeroes the failure counter, clears cursor and
	// error, and returns the row to idle. Cumulative metrics are kept.
	ResetFailures(ctx context.Context, tenantID uuid.UUID, entityType EntityType) error

	// ResetAll applies ResetFailures to every entity type of the tenant
	ResetAll(ctx context.Context, tenantID uuid.UUID) error
}
