package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/sync"
	"go.uber.org/zap"
)

// LockManagerConfig holds the lease and quarantine policy
type LockManagerConfig struct {
	// LockTTL is the lease duration granted on acquisition. A holder that
	// neither releases nor finishes within the TTL is considered dead.
	LockTTL time.Duration

	// MaxConsecutiveFailures is the quarantine threshold
	MaxConsecutiveFailures int
}

// LockManager is the gate every sync run passes through. It composes the
// atomic state-store operations into the acquisition policy: quarantine
// check, conditional acquire, stale-lock takeover.
//
// Release is deliberately permissive: it does not verify that the caller
// still holds the lease. A run that overstays its TTL and gets taken over
// will clobber the takeover's lock state when it finally releases; the next
// scheduler pass recovers. Holder tokens would close that window at the cost
// of a fencing scheme the rest of the pipeline does not need, since all
// writes are idempotent upserts.
type LockManager struct {
	states sync.StateRepository
	config LockManagerConfig
	logger *zap.Logger

	// now is the clock, replaceable in tests
	now func() time.Time
}

// NewLockManager creates a new LockManager
func NewLockManager(states sync.StateRepository, config LockManagerConfig, logger *zap.Logger) *LockManager {
	return &LockManager{
		states: states,
		config: config,
		logger: logger.Named("lock"),
		now:    time.Now,
	}
}

// Acquire attempts to take the sync lease for a (tenant, entity type) pair.
//
// On success the state row is re-read after the lock write, so the caller
// sees the cursor as the previous holder left it. Returns
// sync.ErrQuarantined when the pair has hit the failure threshold and
// sync.ErrLockNotAcquired when another holder has a valid lease; both are
// skip conditions, not failures.
func (m *LockManager) Acquire(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType) (*sync.State, error) {
	state, err := m.states.GetOrCreate(ctx, tenantID, entityType)
	if err != nil {
		return nil, err
	}

	if state.IsQuarantined(m.config.MaxConsecutiveFailures) {
		m.logger.Warn("Sync pair is quarantined, refusing to acquire",
			zap.String("tenant_id", tenantID.String()),
			zap.String("entity_type", entityType.String()),
			zap.Int("consecutive_failures", state.ConsecutiveFailures),
		)
		return nil, sync.ErrQuarantined
	}

	now := m.now()

	acquired, err := m.states.AcquireLock(ctx, tenantID, entityType, now, m.config.LockTTL)
	if err != nil {
		return nil, err
	}
	if acquired {
		// The pre-CAS read may predate a release by the previous holder;
		// resuming from its cursor would replay an entire run. Re-read now
		// that the row is ours.
		return m.states.Get(ctx, tenantID, entityType)
	}

	// The row was locked. Re-read to decide between a live holder and a
	// stale lease left behind by a dead process.
	locked, err := m.states.Get(ctx, tenantID, entityType)
	if err != nil {
		return nil, err
	}

	if !locked.IsLockExpired(now) {
		return nil, sync.ErrLockNotAcquired
	}

	m.logger.Warn("Taking over stale sync lock",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entity_type", entityType.String()),
		zap.Timep("locked_at", locked.LockedAt),
		zap.Timep("lock_expires_at", locked.LockExpiresAt),
	)

	if err := m.states.ForceAcquireLock(ctx, tenantID, entityType, now, m.config.LockTTL); err != nil {
		return nil, err
	}
	return m.states.Get(ctx, tenantID, entityType)
}

// ReleaseSuccess ends a run as completed: lock cleared, failure counter
// reset, metrics recorded
func (m *LockManager) ReleaseSuccess(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, recordsThisRun int64) error {
	if err := m.states.UpdateMetrics(ctx, tenantID, entityType, recordsThisRun); err != nil {
		return err
	}
	return m.states.ReleaseLockSuccess(ctx, tenantID, entityType, m.now())
}

// ReleaseFailure ends a run as failed: lock cleared, failure counter bumped,
// error recorded. The persisted cursor is left alone so the next run resumes
// where this one stopped.
func (m *LockManager) ReleaseFailure(ctx context.Context, tenantID uuid.UUID, entityType sync.EntityType, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return m.states.ReleaseLockFailure(ctx, tenantID, entityType, m.now(), msg)
}
