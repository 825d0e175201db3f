package sync

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// EntityType
// ---------------------------------------------------------------------------

// EntityType identifies one of the mirrored record kinds
type EntityType string

const (
	// EntityTypeCustomers mirrors platform customers (cursor-paginated)
	EntityTypeCustomers EntityType = "customers"
	// EntityTypeProducts mirrors platform products and variants (cursor-paginated)
	EntityTypeProducts EntityType = "products"
	// EntityTypeOrders mirrors platform orders (since-ID paginated)
	EntityTypeOrders EntityType = "orders"
)

// AllEntityTypes returns every synchronized entity type
func AllEntityTypes() []EntityType {
	return []EntityType{EntityTypeCustomers, EntityTypeProducts, EntityTypeOrders}
}

// IsValid returns true if the entity type is valid
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeCustomers, EntityTypeProducts, EntityTypeOrders:
		return true
	default:
		return false
	}
}

// String returns the string representation of EntityType
func (t EntityType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status represents the lifecycle status of a sync state row.
// idle, completed and failed are all "not running" states kept distinct for
// observability; only running participates in mutual exclusion.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// State is the persistent sync progress and lock record for one
// (tenant, entity type) pair. The row is the single source of truth shared
// by all worker processes; every mutation of the lock fields goes through
// the atomic repository operations, never through plain saves.
type State struct {
	// TenantID and EntityType form the composite identity, immutable
	TenantID   uuid.UUID
	EntityType EntityType

	// Status is the lifecycle status
	Status Status

	// IsLocked is the mutual-exclusion flag; when true, LockedAt and
	// LockExpiresAt bound the lease validity window
	IsLocked      bool
	LockedAt      *time.Time
	LockExpiresAt *time.Time

	// LastCursor is the opaque pagination token from the external platform,
	// empty at the start of a collection
	LastCursor string
	// LastSyncedID is the high-water mark for entity types paginated by
	// increasing ID (orders)
	LastSyncedID string

	// ConsecutiveFailures counts failed completions since the last success
	ConsecutiveFailures int
	// LastError holds the most recent failure message, cleared on success
	LastError string

	LastStartedAt   *time.Time
	LastCompletedAt *time.Time
	LastFailedAt    *time.Time

	// TotalRecordsSynced accumulates across all runs; LastRunRecords holds
	// the most recent run only
	TotalRecordsSynced int64
	LastRunRecords     int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewState returns the idle baseline row for a (tenant, entity type) pair
func NewState(tenantID uuid.UUID, entityType EntityType) *State {
	now := time.Now()
	return &State{
		TenantID:   tenantID,
		EntityType: entityType,
		Status:     StatusIdle,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsRunning returns true if a run currently holds a valid (unexpired) lease
func (s *State) IsRunning(now time.Time) bool {
	if !s.IsLocked {
		return false
	}
	return !s.IsLockExpired(now)
}

// IsLockExpired returns true if the lock lease has passed its TTL.
// A row with no expiry timestamp is treated as expired so a malformed lock
// can always be reclaimed.
func (s *State) IsLockExpired(now time.Time) bool {
	if s.LockExpiresAt == nil {
		return true
	}
	return s.LockExpiresAt.Before(now)
}

// IsQuarantined returns true once the consecutive failure count has reached
// the threshold; a quarantined pair is skipped by scheduler and manual
// triggers until an operator reset
func (s *State) IsQuarantined(maxConsecutiveFailures int) bool {
	return s.ConsecutiveFailures >= maxConsecutiveFailures
}
